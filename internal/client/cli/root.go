package cli

import (
	"context"
	"fmt"
)

func (a *App) getStatus() string {
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	if a.sessionID != "" {
		s = s + "@" + a.sessionID + " "
	}
	s = s + string(a.Mode())
	return fmt.Sprintf("(%s)", s)
}

func (a *App) println(v ...any) {
	fmt.Fprintln(a.out, v...)
}

// Root greets the user, asks for a name and runs the command loop.
func (a *App) Root(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	a.println("Welcome to the handover terminal (type 'help' for commands)")
	a.checkOnline(ctx)

	if name, err := GetSimpleText(a.in, "Kullanıcı adı", a.out); err == nil && name != "" {
		_ = a.Login(ctx, []string{name})
	}

	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.in, a.println)
}
