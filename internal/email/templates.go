package email

import "fmt"

const baseStyle = `
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background-color: #4F46E5; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
        .content { background-color: #f9fafb; padding: 30px; border-radius: 0 0 5px 5px; }
        .key { font-size: 22px; font-weight: bold; letter-spacing: 2px; color: #4F46E5; text-align: center; margin: 30px 0; padding: 20px; background-color: white; border-radius: 5px; border: 2px dashed #4F46E5; }
        .footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
`

func wrapTemplate(title, content string) string {
	return fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
    <style>%s</style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>%s</h1>
        </div>
        <div class="content">
%s
        </div>
        <div class="footer">
            <p>&copy; 2026 Smart Stock Trader. All rights reserved.</p>
        </div>
    </div>
</body>
</html>
`, baseStyle, title, content)
}

// SendLicenseKeyEmail delivers a purchased license key
func (s *Service) SendLicenseKeyEmail(to, licenseKey, planName string) {
	subject := "Your Smart Stock Trader License Key"
	content := fmt.Sprintf(`
            <p>Thank you for purchasing the <strong>%s</strong> plan!</p>
            <p>Your license key is:</p>
            <div class="key">%s</div>
            <p>Enter this key in your MT4 Expert Advisor settings to activate your bot.</p>
            <p>Keep this key safe. It is tied to your account on first use.</p>
`, planName, licenseKey)

	s.SendAsync(to, subject, wrapTemplate("License Key", content))
}

// SendTrialCredentialsEmail delivers trial account credentials and license key
func (s *Service) SendTrialCredentialsEmail(to, password, licenseKey string) {
	subject := "Your Smart Stock Trader Trial"
	content := fmt.Sprintf(`
            <p>Welcome to Smart Stock Trader! Your 7-day trial is ready.</p>
            <p>Log in to the dashboard with:</p>
            <p><strong>Email:</strong> %s<br><strong>Password:</strong> %s</p>
            <p>Your trial license key is:</p>
            <div class="key">%s</div>
            <p>Enter this key in your MT4 Expert Advisor settings to activate your bot.</p>
            <p>Please change your password after your first login.</p>
`, to, password, licenseKey)

	s.SendAsync(to, subject, wrapTemplate("Trial Activated", content))
}

// SendWelcomeEmail greets a newly registered user
func (s *Service) SendWelcomeEmail(to, firstName string) {
	subject := "Welcome to Smart Stock Trader"
	greeting := "Welcome"
	if firstName != "" {
		greeting = fmt.Sprintf("Welcome, %s", firstName)
	}
	content := fmt.Sprintf(`
            <p>%s!</p>
            <p>Your account has been created. Head over to the dashboard to connect
            your first MT4 bot and pick a plan.</p>
`, greeting)

	s.SendAsync(to, subject, wrapTemplate("Welcome", content))
}
