package utils

import (
	"fmt"
	"net/smtp"
	"os"
)

func SendMail(to string, message []byte) error {
	from := os.Getenv("SMTP_FROM")
	password := os.Getenv("SMTP_PASSWORD")
	smtpHost := os.Getenv("SMTP_HOST")
	smtpPort := os.Getenv("SMTP_PORT")
	if smtpPort == "" {
		smtpPort = "587"
	}

	auth := smtp.PlainAuth("", from, password, smtpHost)
	return smtp.SendMail(smtpHost+":"+smtpPort, auth, from, []string{to}, message)
}

// SignupNotifier returns the side-channel signup notification hook. Failures
// are logged and never surfaced to the signup flow.
func SignupNotifier() func(email, planName string) {
	return func(email, planName string) {
		to := os.Getenv("SIGNUP_NOTIFY_EMAIL")
		if to == "" {
			LogInfo("SIGNUP_NOTIFY_EMAIL not set, skipping signup notification for " + email)
			return
		}
		msg := []byte(fmt.Sprintf(
			"Subject: New subscriber signup\r\n\r\nEmail: %s\r\nPlan: %s\r\n",
			email, planName,
		))
		if err := SendMail(to, msg); err != nil {
			LogError(err, "signup notification mail failed for "+email)
			return
		}
		LogSuccess("signup notification sent for " + email)
	}
}
