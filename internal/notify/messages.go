package notify

import (
	"fmt"
	"html"
	"time"
)

type Message struct {
	Subject string
	Body    string
}

func DecisionRequest(username, email, acceptURL, rejectURL string) Message {
	return Message{
		Subject: "New account registration awaiting approval",
		Body: fmt.Sprintf(
			"<p>A new account was requested.</p>"+
				"<p>Username: <b>%s</b><br>Email: <b>%s</b></p>"+
				`<p><a href="%s">Accept</a> | <a href="%s">Reject</a></p>`,
			html.EscapeString(username), html.EscapeString(email),
			html.EscapeString(acceptURL), html.EscapeString(rejectURL),
		),
	}
}

func UnderReview(username string) Message {
	return Message{
		Subject: "Your registration is under review",
		Body: fmt.Sprintf("<p>Hi %s,</p><p>Your account request was received and is waiting for an administrator.</p>",
			html.EscapeString(username)),
	}
}

func Approved(username, loginURL string) Message {
	return Message{
		Subject: "Your account has been approved",
		Body: fmt.Sprintf(`<p>Hi %s,</p><p>Your account is active. You can <a href="%s">log in</a> now.</p>`,
			html.EscapeString(username), html.EscapeString(loginURL)),
	}
}

func Rejected(username string) Message {
	return Message{
		Subject: "Your account request was declined",
		Body: fmt.Sprintf("<p>Hi %s,</p><p>An administrator declined your account request.</p>",
			html.EscapeString(username)),
	}
}

func PasswordReset(username, resetURL string, ttl time.Duration) Message {
	return Message{
		Subject: "Password reset",
		Body: fmt.Sprintf(`<p>Hi %s,</p><p><a href="%s">Reset your password</a>. The link expires in %s.</p>`,
			html.EscapeString(username), html.EscapeString(resetURL), ttl),
	}
}

func EmailChange(username, verifyURL string) Message {
	return Message{
		Subject: "Confirm your new email address",
		Body: fmt.Sprintf(`<p>Hi %s,</p><p><a href="%s">Confirm this address</a> to finish changing your account email.</p>`,
			html.EscapeString(username), html.EscapeString(verifyURL)),
	}
}
