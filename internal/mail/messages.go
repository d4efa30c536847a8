package mail

import "fmt"

// SubjectVerification and SubjectPasswordReset are the fixed subjects for
// the two transactional messages this service sends.
const (
	SubjectVerification  = "Verify your ShareYourSpace Account"
	SubjectPasswordReset = "Reset Your ShareYourSpace Password"
)

// VerificationBody renders the HTML for the account verification email.
func VerificationBody(verificationURL string) string {
	return fmt.Sprintf(`<html>
	<body>
		<h1>Verify your ShareYourSpace Account</h1>
		<p>Thank you for registering. Please click the link below to verify your email address:</p>
		<a href=%q>Verify Email</a>
		<p>If you did not create this account, please ignore this email.</p>
	</body>
</html>`, verificationURL)
}

// PasswordResetBody renders the HTML for the password reset email.
func PasswordResetBody(resetURL string) string {
	return fmt.Sprintf(`<html>
	<body>
		<h1>Reset Your ShareYourSpace Password</h1>
		<p>Please click the link below to reset your password:</p>
		<a href=%q>Reset Password</a>
		<p>This link will expire in 15 minutes.</p>
		<p>If you did not request a password reset, please ignore this email.</p>
	</body>
</html>`, resetURL)
}
