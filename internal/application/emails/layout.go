package emails

import (
	"fmt"
	"html"
	"time"
)

const (
	themePrimary   = "#B45309"
	themeTextMain  = "#1F2937"
	themeTextMuted = "#6B7280"
	themeBgBody    = "#F3F4F6"
	themeWhite     = "#FFFFFF"
)

// EmailLayout wraps content in the shared transactional email frame.
func EmailLayout(siteURL, contentHTML string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>ListingHub</title>
  <style>
    body { margin: 0; padding: 0; background-color: %s; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: %s; }
    .content-body p { margin: 0 0 20px 0; font-size: 16px; line-height: 1.6; }
    .content-body h1 { font-size: 22px; margin: 0 0 18px 0; }
    .hub-button { display: inline-block; background-color: %s; color: #ffffff !important; padding: 12px 28px; border-radius: 6px; font-weight: 600; text-decoration: none; }
    .footer-text { color: %s; font-size: 13px; }
  </style>
</head>
<body>
  <table role="presentation" width="100%%" cellspacing="0" cellpadding="0" style="background-color: %s;">
    <tr>
      <td align="center" style="padding: 40px 0;">
        <table role="presentation" width="600" cellspacing="0" cellpadding="0" style="background-color: %s; border-radius: 8px;">
          <tr><td class="content-body" style="padding: 40px 48px 24px 48px;">%s</td></tr>
          <tr>
            <td align="center" style="padding: 0 48px 32px 48px;">
              <p class="footer-text">&copy; %d ListingHub &nbsp;&bull;&nbsp; <a href="%s" style="color: %s;">%s</a></p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`,
		themeBgBody, themeTextMain, themePrimary, themeTextMuted, themeBgBody, themeWhite,
		contentHTML, time.Now().Year(), siteURL, themePrimary, html.EscapeString(siteURL))
}

func welcomeContent(siteURL, firstName string) string {
	return fmt.Sprintf(`
    <h1>Welcome, %s!</h1>
    <p>Your profile is complete. You can now submit events, temples, vendors, activities and coupons for review.</p>
    <center><a href="%s" class="hub-button">Browse listings</a></center>
`, html.EscapeString(firstName), siteURL)
}

func accountUpdatedContent(siteURL, firstName string) string {
	return fmt.Sprintf(`
    <h1>Profile updated</h1>
    <p>Hi %s, the details on your account were just changed.</p>
    <p>If you did not make this change, contact support right away.</p>
    <center><a href="%s" class="hub-button">View your profile</a></center>
`, html.EscapeString(firstName), siteURL)
}

func reviewDecisionContent(siteURL, message string) string {
	return fmt.Sprintf(`
    <h1>Review update</h1>
    <p>%s</p>
    <center><a href="%s" class="hub-button">Open your dashboard</a></center>
`, html.EscapeString(message), siteURL)
}
