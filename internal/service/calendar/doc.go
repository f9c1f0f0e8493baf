// Package calendar exports the armed alarm as an iCalendar event and lists
// its upcoming occurrences.
package calendar
