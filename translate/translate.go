// Package translate resolves user-facing message text against the
// host locale. Every error string in the module is built through From.
package translate

import (
	"log"

	"github.com/jeandeaual/go-locale"

	"golang.org/x/text/message"
)

var printer = newPrinter()

// newPrinter matches the host locale list against the message catalog.
// A host whose locale cannot be determined falls back to en-US, which
// is also the catalog's source language.
func newPrinter() *message.Printer {
	locales, err := locale.GetLocales()
	if err != nil {
		log.Printf("cupidasm: locale: %v", err)
	}
	if len(locales) == 0 {
		locales = []string{"en-US"}
	}
	return message.NewPrinter(message.MatchLanguage(locales...))
}

// From translates an en-US Sprintf() format into the host locale.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
