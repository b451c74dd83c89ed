package parser

import (
	"regexp"
	"strings"
)

var (
	reEmail      = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	reEmailExact = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	rePhones     = []*regexp.Regexp{
		regexp.MustCompile(`(?:\+7|8)[\s-]?\(?\d{3}\)?[\s-]?\d{3}[\s-]?\d{2}[\s-]?\d{2}`),
		regexp.MustCompile(`\+?\d{1,3}[\s.-]?\(?\d{3}\)?[\s.-]?\d{3}[\s.-]?\d{4}`),
	}
	reNonDigit = regexp.MustCompile(`\D`)
)

type contacts struct {
	Email string
	Phone string
}

// findContacts pulls the first plausible email and phone out of raw text.
func findContacts(text string) contacts {
	var c contacts
	if m := reEmail.FindString(text); m != "" {
		c.Email = m
	}
	for _, re := range rePhones {
		for _, m := range re.FindAllString(text, -1) {
			if validPhone(m) {
				c.Phone = strings.TrimSpace(m)
				return c
			}
		}
	}
	return c
}

func validEmail(s string) bool {
	return reEmailExact.MatchString(strings.TrimSpace(s))
}

func validPhone(s string) bool {
	return len(reNonDigit.ReplaceAllString(s, "")) >= 10
}
