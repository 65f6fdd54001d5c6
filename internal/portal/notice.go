// Package portal composes the attendee and admin views from the remote
// client, the preference store and the current viewer. Every remote or
// validation failure is turned into a Notice; views never abort on them.
package portal

import "errors"

// Level is the severity of a Notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a dismissable message shown alongside a view.
type Notice struct {
	Level Level
	Text  string
}

// User facing notice texts.
const (
	msgScheduleLoadFailed = "Failed to load schedule"
	msgSessionsLoadFailed = "Failed to load your sessions"
	msgSessionSaved       = "Session saved locally"
	msgSessionRemoved     = "Session removed from saved list"
	msgLoggedIn           = "Logged In Successfully"
	msgLoggedOut          = "Logged Out"
	msgSpeakerRequired    = "ID and Name required"
	msgTitleRequired      = "Title required"
	msgUserAdded          = "User Added"
	msgUserUpdated        = "User Updated"
	msgUserDeleted        = "User Deleted"
	msgEventAdded         = "Event Added"
	msgEventUpdated       = "Event Updated"
	msgEventDeleted       = "Event Deleted"
	msgAdminRequired      = "Please log in as an administrator"
)

// Errors returned next to their notices.
var (
	ErrIdentityRequired  = errors.New("portal: speaker identity required")
	ErrAdminRequired     = errors.New("portal: admin session required")
	ErrSpeakerIncomplete = errors.New("portal: speaker id and name required")
	ErrEntryIncomplete   = errors.New("portal: schedule entry title required")
)

func success(text string) Notice { return Notice{Level: LevelSuccess, Text: text} }

func info(text string) Notice { return Notice{Level: LevelInfo, Text: text} }

func failure(text string) Notice { return Notice{Level: LevelError, Text: text} }

func errorNotice(err error) Notice { return failure(err.Error()) }
