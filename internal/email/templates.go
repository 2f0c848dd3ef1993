package email

import "html/template"

// Inline templates; small enough that embedding files is not worth it.
var templates = template.Must(template.New("notification").Parse(notificationTemplate))

func init() {
	template.Must(templates.New("welcome").Parse(welcomeTemplate))
}

const notificationTemplate = `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 30px; border-radius: 10px 10px 0 0;">
    <h1 style="color: white; margin: 0; text-align: center;">InnovateFund</h1>
  </div>
  <div style="background: white; padding: 30px; border-radius: 0 0 10px 10px;">
    <h2 style="color: #333;">Hi {{.RecipientName}},</h2>
    <div style="background: #f8f9fa; padding: 20px; border-radius: 8px; margin: 20px 0;">
      <h3 style="color: #495057; margin-top: 0;">{{.Title}}</h3>
      <p style="color: #6c757d; line-height: 1.6; margin: 0;">{{.Message}}</p>
    </div>
    {{if .ActionURL}}
    <div style="text-align: center; margin: 30px 0;">
      <a href="{{.ActionURL}}" style="background: #667eea; color: white; padding: 12px 30px; text-decoration: none; border-radius: 6px; display: inline-block;">View Details</a>
    </div>
    {{end}}
    <div style="border-top: 1px solid #dee2e6; padding-top: 20px; margin-top: 30px; color: #6c757d; font-size: 14px;">
      <p>This notification was sent from InnovateFund. You can update your email preferences in your account settings.</p>
    </div>
  </div>
</div>
`

const welcomeTemplate = `
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 30px; border-radius: 10px 10px 0 0;">
    <h1 style="color: white; margin: 0; text-align: center;">Welcome to InnovateFund!</h1>
  </div>
  <div style="background: white; padding: 30px; border-radius: 0 0 10px 10px;">
    <h2 style="color: #333;">Hi {{.Name}},</h2>
    <p style="color: #495057; line-height: 1.6;">Thank you for joining InnovateFund, where innovation meets investment!</p>
    <p style="color: #495057; line-height: 1.6;">
      {{if eq .UserType "innovator"}}
      As an innovator, you can submit ideas, find collaborators and attract funding.
      {{else}}
      As an investor, you can explore opportunities and connect with innovators.
      {{end}}
    </p>
    {{if .FrontendURL}}
    <div style="text-align: center; margin: 30px 0;">
      <a href="{{.FrontendURL}}" style="background: #667eea; color: white; padding: 12px 30px; text-decoration: none; border-radius: 6px; display: inline-block;">Get Started</a>
    </div>
    {{end}}
  </div>
</div>
`
