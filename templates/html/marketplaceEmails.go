package templates

import (
	"fmt"
	"html"
	"strconv"
)

// RenderVerificationCodeEmail generates the HTML for the email verification code email
func RenderVerificationCodeEmail(code string, expiresInMinutes int) string {
	body := fmt.Sprintf(`<p>Use the code below to verify your email address.</p>
      <p class="code">%s</p>
      <p>This code expires in %d minutes. If you did not request it you can ignore this email.</p>`,
		html.EscapeString(code), expiresInMinutes)
	return renderLayout("Verify your email", body)
}

// RenderPasswordResetEmail generates the HTML for the password reset email
func RenderPasswordResetEmail(link string, expiresInMinutes int) string {
	safeLink := html.EscapeString(link)
	body := fmt.Sprintf(`<p>We received a request to reset your password.</p>
      <a href="%s" class="cta-button">Reset password</a>
      <p>The link expires in %d minutes. If you did not ask for a reset, no action is needed.</p>`,
		safeLink, expiresInMinutes)
	return renderLayout("Reset your password", body)
}

// RenderProductMatchEmail generates the HTML for a saved-search match
func RenderProductMatchEmail(title, category, city string, price float64, link string) string {
	body := fmt.Sprintf(`<p>A new listing matches one of your saved preferences.</p>
      <p><strong>%s</strong><br>%s &middot; %s &middot; %s</p>
      <a href="%s" class="cta-button">View listing</a>`,
		html.EscapeString(title), html.EscapeString(category), html.EscapeString(city),
		strconv.FormatFloat(price, 'f', 2, 64), html.EscapeString(link))
	return renderLayout("New listing for you", body)
}

// RenderAdminScamReportEmail generates the HTML for the admin notification on a new scam report
func RenderAdminScamReportEmail(reportID, productID, scamType, description, link string) string {
	body := fmt.Sprintf(`<p>A new scam report is waiting for review.</p>
      <p>Report: %s<br>Product: %s<br>Type: %s</p>
      <p>%s</p>
      <a href="%s" class="cta-button">Review in admin console</a>`,
		html.EscapeString(reportID), html.EscapeString(productID), html.EscapeString(scamType),
		html.EscapeString(description), html.EscapeString(link))
	return renderLayout("New scam report", body)
}
