package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/handover/internal/client/client"
	"github.com/dmitrijs2005/handover/internal/client/models"
)

var errUsage = errors.New("usage")

// report prints err in a form meant for the person at the keyboard.
func (a *App) report(err error) error {
	var rejected *client.RejectedError
	switch {
	case errors.As(err, &rejected):
		a.println(rejected.Reason)
	case errors.Is(err, client.ErrUnavailable):
		a.setMode(ModeOffline)
		a.println("Sunucuya ulaşılamıyor")
	case errors.Is(err, client.ErrUnauthorized):
		a.println("Oturum açmanız gerekiyor")
	case errors.Is(err, errUsage):
	default:
		a.println("error:", err)
	}
	return err
}

func (a *App) usage(text string) error {
	a.println("Usage:", text)
	return errUsage
}

// currentSession returns the first argument or the session the user is in.
func (a *App) currentSession(args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if a.sessionID == "" {
		a.println("Aktif oturum yok")
		return "", errUsage
	}
	return a.sessionID, nil
}

func (a *App) Login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("login <username>")
	}

	user, err := a.api.Login(ctx, args[0])
	if err != nil {
		return a.report(err)
	}
	a.userName = user.UserName
	a.sessionID = ""
	a.println("Hoş geldiniz,", user.UserName)

	return a.Active(ctx, nil)
}

func (a *App) Active(ctx context.Context, _ []string) error {
	session, err := a.api.ActiveSession(ctx)
	if err != nil {
		return a.report(err)
	}
	if session == nil {
		a.sessionID = ""
		a.println("Aktif oturum yok")
		return nil
	}

	a.sessionID = session.ID
	a.println("Aktif oturum:", session.Name, session.ID)
	return nil
}

func (a *App) Sessions(ctx context.Context, _ []string) error {
	views, err := a.api.ListSessions(ctx)
	if err != nil {
		return a.report(err)
	}
	if len(views) == 0 {
		a.println("Oturum yok")
		return nil
	}

	for _, v := range views {
		names := make([]string, 0, len(v.Participants))
		for _, p := range v.Participants {
			names = append(names, p.User.UserName)
		}
		lock := ""
		if len(v.Session.AllowedUserIDs) > 0 {
			lock = " [kısıtlı]"
		}
		a.println(fmt.Sprintf("%s  %s%s  (%s)  %s",
			v.Session.ID, v.Session.Name, lock, v.CreatedBy.UserName, strings.Join(names, ", ")))
	}
	return nil
}

func (a *App) NewSession(ctx context.Context, args []string) error {
	rest, users := splitUsers(args)
	if len(rest) == 0 {
		return a.usage("new <name> [+user...]")
	}

	session, err := a.api.CreateSession(ctx, strings.Join(rest, " "), users)
	if err != nil {
		return a.report(err)
	}
	a.sessionID = session.ID
	a.println("Oturum oluşturuldu:", session.Name, session.ID)
	return nil
}

func (a *App) Join(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("join <sessionId>")
	}

	if err := a.api.JoinSession(ctx, args[0]); err != nil {
		return a.report(err)
	}
	a.sessionID = args[0]
	a.println("Oturuma katıldınız")
	return nil
}

func (a *App) Leave(ctx context.Context, args []string) error {
	id, err := a.currentSession(args)
	if err != nil {
		return err
	}

	if err := a.api.LeaveSession(ctx, id); err != nil {
		return a.report(err)
	}
	if id == a.sessionID {
		a.sessionID = ""
	}
	a.println("Oturumdan ayrıldınız")
	return nil
}

func (a *App) End(ctx context.Context, args []string) error {
	id, err := a.currentSession(args)
	if err != nil {
		return err
	}

	if err := a.api.EndSession(ctx, id); err != nil {
		return a.report(err)
	}
	if id == a.sessionID {
		a.sessionID = ""
	}
	a.println("Oturum sonlandırıldı")
	return nil
}

func (a *App) AddPatient(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return a.usage("patient <tcNo> [name]")
	}
	sessionID, err := a.currentSession(nil)
	if err != nil {
		return err
	}

	patient, tasks, err := a.api.CreatePatient(ctx, sessionID, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return a.report(err)
	}
	a.println("Hasta eklendi:", patient.TCNo, patient.ID)
	for _, t := range tasks {
		a.printTask(t, "")
	}
	return nil
}

func (a *App) Board(ctx context.Context, args []string) error {
	id, err := a.currentSession(args)
	if err != nil {
		return err
	}

	board, err := a.api.SessionBoard(ctx, id)
	if err != nil {
		return a.report(err)
	}
	if len(board) == 0 {
		a.println("Hasta yok")
		return nil
	}

	for _, row := range board {
		state := fmt.Sprintf("%d açık görev", row.IncompleteTasks)
		if row.Patient.Completed {
			state = "tamamlandı (" + row.CompletedBy + ")"
		}
		a.println(fmt.Sprintf("%s  %s %s  - %s  [%s]", row.Patient.ID, row.Patient.TCNo, row.Patient.Name, row.CreatedBy, state))
		for _, t := range row.Tasks {
			by := t.CompletedBy
			if t.Cancelled {
				by = t.CancelledBy
			}
			a.printTask(&t.Task, by)
		}
	}
	return nil
}

func (a *App) printTask(t *models.Task, by string) {
	line := fmt.Sprintf("    [%s] %s  %s", t.Mark(), t.Name, t.ID)
	if by != "" {
		line += "  (" + by + ")"
	}
	a.println(line)
}

func (a *App) AddTask(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return a.usage("task <patientId> <name>")
	}

	task, err := a.api.AddTask(ctx, args[0], strings.Join(args[1:], " "))
	if err != nil {
		return a.report(err)
	}
	a.printTask(task, "")
	return nil
}

func (a *App) Toggle(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("toggle <taskId>")
	}

	task, err := a.api.ToggleTask(ctx, args[0])
	if err != nil {
		return a.report(err)
	}
	a.printTask(task, "")
	return nil
}

func (a *App) Cancel(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("cancel <taskId>")
	}

	task, err := a.api.CancelTask(ctx, args[0])
	if err != nil {
		return a.report(err)
	}
	a.printTask(task, "")
	return nil
}

func (a *App) Complete(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return a.usage("complete <patientId>")
	}

	patient, err := a.api.CompletePatient(ctx, args[0])
	if err != nil {
		return a.report(err)
	}
	a.println("Hasta tamamlandı:", patient.TCNo)
	return nil
}
