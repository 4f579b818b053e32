package dispatch

import (
	"fmt"
	"sync"

	"github.com/osteele/liquid"

	"github.com/ignite/waitlist-service/internal/domain"
)

// welcomeHTML is the confirmation email body. Liquid, parameterized by the
// signup's name and userType.
const welcomeHTML = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background-color:#f4f4f7;font-family:Helvetica,Arial,sans-serif;">
  <table role="presentation" width="100%" cellpadding="0" cellspacing="0">
    <tr><td align="center" style="padding:32px 16px;">
      <table role="presentation" width="560" cellpadding="0" cellspacing="0" style="background:#ffffff;border-radius:8px;padding:40px;">
        <tr><td>
          <h1 style="margin:0 0 16px;color:#1a1a2e;font-size:24px;">You're on the list, {{ name }}!</h1>
          <p style="margin:0 0 12px;color:#51545e;font-size:16px;line-height:1.5;">
            Thanks for joining the IGNITE waitlist as a {{ user_type }}. We're
            onboarding in small batches and will email you the moment your
            spot opens up.
          </p>
          <p style="margin:0 0 12px;color:#51545e;font-size:16px;line-height:1.5;">
            {% if user_type == "student" %}Keep an eye out for student early-access perks.{% else %}Keep an eye out for founding-team early-access perks.{% endif %}
          </p>
          <p style="margin:24px 0 0;color:#a8aaaf;font-size:12px;">
            You received this email because this address was used to join the IGNITE waitlist.
          </p>
        </td></tr>
      </table>
    </td></tr>
  </table>
</body>
</html>`

const welcomeText = `You're on the list, {{ name }}!

Thanks for joining the IGNITE waitlist as a {{ user_type }}. We're onboarding
in small batches and will email you the moment your spot opens up.`

// templates compiles the welcome templates once and renders them per signup.
type templates struct {
	engine *liquid.Engine
	once   sync.Once
	html   *liquid.Template
	text   *liquid.Template
	err    error
}

func newTemplates() *templates {
	return &templates{engine: liquid.NewEngine()}
}

func (t *templates) compile() {
	t.once.Do(func() {
		if t.html, t.err = t.engine.ParseString(welcomeHTML); t.err != nil {
			return
		}
		t.text, t.err = t.engine.ParseString(welcomeText)
	})
}

// render produces the HTML and plain-text bodies for one signup.
func (t *templates) render(name string, userType domain.UserType) (html, text string, err error) {
	t.compile()
	if t.err != nil {
		return "", "", fmt.Errorf("parse welcome template: %w", t.err)
	}

	vars := map[string]interface{}{
		"name":      name,
		"user_type": string(userType),
	}
	if html, err = t.html.RenderString(vars); err != nil {
		return "", "", fmt.Errorf("render welcome html: %w", err)
	}
	if text, err = t.text.RenderString(vars); err != nil {
		return "", "", fmt.Errorf("render welcome text: %w", err)
	}
	return html, text, nil
}
