package model

import "strings"

// Touch templates, literal except for the {field} placeholders. Touch 2 has
// two variants: contacts who already confirmed their number get the direct
// pitch, everyone else gets the follow-up wording.
const (
	TemplateTouch1 = "Hey is this {first_name} {last_name}? My name is {sender_name}, and I am checking to verify your phone number for the {school} {fraternity} alumni list."

	TemplateTouch2Confirmed = "Great, I'm reaching out because we partnered with {school} {fraternity} to launch Trailblaize, a free LinkedIn-style platform that connects actives and alumni. Here's the signup link: {signup_link}"

	TemplateTouch2NoResponse = "Hey {first_name}, following up — we partnered with {school} {fraternity} to launch Trailblaize, a free platform that connects actives and alumni. Here's the signup link if you're interested: {signup_link}"

	TemplateTouch3 = "Hey {first_name}, just checking back in — did you get a chance to sign up? Happy to answer any questions."
)

// TemplateVars carries every substitutable field of a touch template.
type TemplateVars struct {
	FirstName  string
	LastName   string
	SenderName string
	School     string
	Fraternity string
	SignupLink string
}

// TemplateForTouch picks the template for a touch. The confirmed variant of
// touch 2 applies when the contact's response was classified "confirmed".
func TemplateForTouch(touch int, confirmed bool) string {
	switch touch {
	case 1:
		return TemplateTouch1
	case 2:
		if confirmed {
			return TemplateTouch2Confirmed
		}
		return TemplateTouch2NoResponse
	case 3:
		return TemplateTouch3
	}
	return ""
}

// RenderTemplate substitutes every {field} placeholder in the template.
// Substitution happens server-side per contact at send time.
func RenderTemplate(template string, vars TemplateVars) string {
	r := strings.NewReplacer(
		"{first_name}", vars.FirstName,
		"{last_name}", vars.LastName,
		"{sender_name}", vars.SenderName,
		"{school}", vars.School,
		"{fraternity}", vars.Fraternity,
		"{signup_link}", vars.SignupLink,
	)
	return r.Replace(template)
}
