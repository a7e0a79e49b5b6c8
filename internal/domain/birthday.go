package domain

import (
	"sort"
	"time"
)

// BirthdayWindowDays is how far ahead, in days, a birthday counts as upcoming.
// The window includes today.
const BirthdayWindowDays = 7

const monthDayLayout = "01-02"

// NextBirthday returns the date of the next celebration of birthday on or
// after today, ignoring the birth year. People born on February 29th
// celebrate on March 1st in non-leap years.
func NextBirthday(birthday, today time.Time) time.Time {
	today = DateOf(today)
	next := birthdayInYear(birthday, today.Year())
	if next.Before(today) {
		next = birthdayInYear(birthday, today.Year()+1)
	}
	return next
}

// DaysUntilBirthday returns the number of whole days from today until the
// next birthday. Zero means the birthday is today.
func DaysUntilBirthday(birthday, today time.Time) int {
	next := NextBirthday(birthday, today)
	return int(next.Sub(DateOf(today)).Hours() / 24)
}

// IsUpcomingBirthday reports whether the next birthday falls within
// [today, today+windowDays].
func IsUpcomingBirthday(birthday, today time.Time, windowDays int) bool {
	return DaysUntilBirthday(birthday, today) <= windowDays
}

// BirthdayWindowKeys returns the MM-DD keys of every stored birthday that is
// celebrated within [today, today+windowDays]. A March 1st in a non-leap
// year also yields "02-29".
func BirthdayWindowKeys(today time.Time, windowDays int) []string {
	today = DateOf(today)
	keys := make([]string, 0, windowDays+2)
	for i := 0; i <= windowDays; i++ {
		day := today.AddDate(0, 0, i)
		keys = append(keys, day.Format(monthDayLayout))
		if day.Month() == time.March && day.Day() == 1 && !isLeapYear(day.Year()) {
			keys = append(keys, "02-29")
		}
	}
	return keys
}

// SortByUpcomingBirthday orders contacts by days until their next birthday,
// breaking ties by ID.
func SortByUpcomingBirthday(contacts []*Contact, today time.Time) {
	sort.SliceStable(contacts, func(i, j int) bool {
		di := DaysUntilBirthday(contacts[i].Birthday, today)
		dj := DaysUntilBirthday(contacts[j].Birthday, today)
		if di != dj {
			return di < dj
		}
		return contacts[i].ID < contacts[j].ID
	})
}

func birthdayInYear(birthday time.Time, year int) time.Time {
	month, day := birthday.Month(), birthday.Day()
	if month == time.February && day == 29 && !isLeapYear(year) {
		month, day = time.March, 1
	}
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
