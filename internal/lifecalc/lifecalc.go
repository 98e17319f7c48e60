// Package lifecalc converts a birthdate and a life expectancy into elapsed
// and remaining time breakdowns.
//
// Elapsed days/weeks are exact; elapsed years/months use calendar-aware
// component subtraction (the way people state their age). Remaining
// days/weeks use a 365.25-day year on purpose: the two strategies are
// user-visible and must not be unified.
package lifecalc

import "time"

// Elapsed is the exact time lived between birthdate and today.
type Elapsed struct {
	Days   int
	Weeks  int
	Months int
	Years  int
}

// Remaining is the expectancy window left, clamped at zero.
type Remaining struct {
	Years  int
	Months int
	Days   int
	Weeks  int
}

// daysPerYear is the remaining-side approximation only.
const daysPerYear = 365.25

// ComputeElapsed breaks down the time between birthdate and today.
// Callers must ensure birthdate <= today.
func ComputeElapsed(birthdate, today time.Time) Elapsed {
	b := midnightUTC(birthdate)
	t := midnightUTC(today)

	days := int(t.Sub(b).Hours() / 24)
	years, months := calendarDiff(b, t)

	return Elapsed{
		Days:   days,
		Weeks:  days / 7,
		Months: years*12 + months,
		Years:  years,
	}
}

// ComputeRemaining subtracts the elapsed calendar duration from the
// expectancy. Years and months never go negative: once the expectancy is
// exceeded everything reports zero. Callers must ensure expectancyYears > 0.
func ComputeRemaining(birthdate, today time.Time, expectancyYears int) Remaining {
	elapsed := ComputeElapsed(birthdate, today)

	totalMonths := expectancyYears*12 - elapsed.Months
	if totalMonths < 0 {
		totalMonths = 0
	}

	approxDays := int(float64(totalMonths) / 12 * daysPerYear)

	return Remaining{
		Years:  totalMonths / 12,
		Months: totalMonths % 12,
		Days:   approxDays,
		Weeks:  approxDays / 7,
	}
}

// WeeksLived returns the exact completed weeks between birthdate and today,
// the value driving both statistics and the grid fill.
func WeeksLived(birthdate, today time.Time) int {
	return ComputeElapsed(birthdate, today).Weeks
}

// calendarDiff returns full years and leftover months between two civil
// dates using component-wise borrow. A month counts only once its day of
// month has been reached, so an anniversary one day away still reports the
// previous year.
func calendarDiff(from, to time.Time) (years, months int) {
	y := to.Year() - from.Year()
	m := int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		m--
	}
	if m < 0 {
		y--
		m += 12
	}
	return y, m
}

func midnightUTC(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
