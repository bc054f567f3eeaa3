package notifications

import (
	"fmt"
	"html"
	"strings"

	"designer-onboarding/internal/models"
)

type template struct {
	Subject string
	Body    string
	SMS     string
}

var templates = map[models.NotificationKind]template{
	models.NotificationApproval: {
		Subject: "Welcome to AsoMarket, {{brandName}} is approved",
		Body: `Hello {{designerName}},

Congratulations! Your application for {{brandName}} has been approved and your brand account is ready.

{{accessSection}}

Once signed in you can complete your brand profile and start listing products at {{siteUrl}}.

Questions? Reach us at {{supportEmail}}.

The AsoMarket team`,
		SMS: "Hi {{designerName}}, {{brandName}} has been approved on AsoMarket. Check {{email}} for your sign-in details.",
	},
	models.NotificationRejection: {
		Subject: "Update on your AsoMarket application for {{brandName}}",
		Body: `Hello {{designerName}},

Thank you for applying to sell {{brandName}} on AsoMarket. After review we are unable to approve your application at this time.

{{notesSection}}

You are welcome to apply again once the points above are addressed. Questions? Reach us at {{supportEmail}}.

The AsoMarket team`,
		SMS: "Hi {{designerName}}, there is an update on your AsoMarket application for {{brandName}}. Check {{email}} for details.",
	},
}

// accessSection tells the designer how to sign in. A reset link is preferred
// over the temporary password.
func accessSection(creds *models.Credentials, loginURL string) string {
	switch {
	case creds == nil || !creds.IsNewUser:
		return fmt.Sprintf("Your brand has been added to your existing account. Sign in at %s to manage it.", loginURL)
	case creds.PasswordResetLink != "":
		return fmt.Sprintf("We created an account for you. Set your password using this link (valid for 7 days):\n%s", creds.PasswordResetLink)
	case creds.TemporaryPassword != "":
		return fmt.Sprintf("We created an account for you. Sign in at %s with this temporary password and change it straight away:\n%s", loginURL, creds.TemporaryPassword)
	default:
		return fmt.Sprintf("We created an account for you. Use \"Forgot password\" at %s to set your password.", loginURL)
	}
}

func notesSection(notes *string) string {
	if notes == nil || strings.TrimSpace(*notes) == "" {
		return ""
	}
	return "Reviewer notes:\n" + strings.TrimSpace(*notes)
}

// renderTemplate substitutes {{key}} placeholders and drops any left unfilled.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl

	for k, v := range data {
		placeholder := "{{" + k + "}}"
		value := ""
		if s, ok := v.(string); ok {
			value = s
		} else if v != nil {
			value = fmt.Sprintf("%v", v)
		}
		result = strings.ReplaceAll(result, placeholder, value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		end += start + 2
		result = result[:start] + result[end:]
	}

	return collapseBlankLines(result)
}

// collapseBlankLines removes the empty paragraphs left by omitted sections.
func collapseBlankLines(s string) string {
	for strings.Contains(s, "\n\n\n") {
		s = strings.ReplaceAll(s, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(s)
}

func toHTML(text string) string {
	paragraphs := strings.Split(html.EscapeString(text), "\n\n")
	var b strings.Builder
	for _, p := range paragraphs {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(p, "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}
