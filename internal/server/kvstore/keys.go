package kvstore

// Primary records.
func UserKey(id string) string    { return "user:" + id }
func SessionKey(id string) string { return "session:" + id }
func PatientKey(id string) string { return "patient:" + id }
func TaskKey(id string) string    { return "task:" + id }

// ParticipantKey is the primary key of a membership record; it is also the
// member stored in the session's participant set.
func ParticipantKey(userID, sessionID string) string {
	return "session:participant:" + userID + ":" + sessionID
}

// Secondary lookup indices (attribute -> id).
func UserNameKey(username string) string { return "user:username:" + username }
func PatientTCKey(tcNo string) string    { return "patient:tc:" + tcNo }

// Global sorted sets scored by creation time in unix milliseconds.
const (
	UsersAllKey    = "users:all"
	SessionsAllKey = "sessions:all"
	PatientsAllKey = "patients:all"
)

// Membership and ordering structures.
func SessionPatientsKey(sessionID string) string     { return "session:" + sessionID + ":patients" }
func SessionParticipantsKey(sessionID string) string { return "session:" + sessionID + ":participants" }
func PatientTasksKey(patientID string) string        { return "patient:" + patientID + ":tasks" }

// UserSessionsKey is a set holding at most one session id: the user's
// current session slot.
func UserSessionsKey(userID string) string { return "user:" + userID + ":sessions" }
