// Package month содержит вспомогательную арифметику месячного расчётного цикла.
package month

import (
	"time"
)

// AddRenewalMonth возвращает дату следующего продления: плюс один календарный месяц
// с прижатием к концу месяца. 31 января -> 28/29 февраля, а не 2/3 марта,
// как сделал бы чистый AddDate.
func AddRenewalMonth(t time.Time) time.Time {
	year, mon, day := t.Date()
	firstOfNext := time.Date(year, mon+1, 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	lastDay := daysIn(firstOfNext.Year(), firstOfNext.Month())
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// DaysUntil считает количество полных суток от now до deadline.
// Если срок уже наступил, возвращает 0.
func DaysUntil(now, deadline time.Time) int {
	if !now.Before(deadline) {
		return 0
	}
	days := int(deadline.Sub(now).Hours() / 24)
	return days
}

func daysIn(year int, mon time.Month) int {
	return time.Date(year, mon+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
