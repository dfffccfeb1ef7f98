package template

// Built-in verification message used when a list requires confirmed
// addresses.
const (
	VerificationSubject = "Please confirm your subscription to {{ list_name }}"
	VerificationBody    = `<p>Hi {{ name | default: "there" }},</p>
<p>Please confirm that you want to receive emails from <strong>{{ list_name }}</strong> at {{ email }}.</p>
<p><a href="{{ verify_link }}">Confirm my subscription</a></p>
<p>If you did not sign up, ignore this message or <a href="{{ unsubscribe_link }}">unsubscribe</a>.</p>`
)
