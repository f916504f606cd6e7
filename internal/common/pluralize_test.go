package common

import (
	"testing"
	"time"
)

func TestPluralizeEmployees(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{0, "сотрудников"},
		{1, "сотрудник"},
		{2, "сотрудника"},
		{4, "сотрудника"},
		{5, "сотрудников"},
		{11, "сотрудников"},
		{12, "сотрудников"},
		{21, "сотрудник"},
		{22, "сотрудника"},
		{100, "сотрудников"},
		{101, "сотрудник"},
	}
	for _, tc := range cases {
		if got := PluralizeEmployees(tc.n); got != tc.want {
			t.Errorf("PluralizeEmployees(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestPluralizeDays(t *testing.T) {
	cases := []struct {
		n    int
		want string
	}{
		{0, "дней"},
		{1, "день"},
		{2, "дня"},
		{4, "дня"},
		{5, "дней"},
		{11, "дней"},
		{14, "дней"},
		{21, "день"},
		{23, "дня"},
		{100, "дней"},
	}
	for _, tc := range cases {
		if got := PluralizeDays(tc.n); got != tc.want {
			t.Errorf("PluralizeDays(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestDaysInMonth(t *testing.T) {
	cases := []struct {
		year  int
		month time.Month
		want  int
	}{
		{2024, time.February, 29}, // високосный год
		{2023, time.February, 28},
		{2024, time.January, 31},
		{2024, time.April, 30},
		{1900, time.February, 28}, // вековой год не високосный
		{2000, time.February, 29}, // но кратный 400 — високосный
	}
	for _, tc := range cases {
		if got := DaysInMonth(tc.year, tc.month); got != tc.want {
			t.Errorf("DaysInMonth(%d, %v) = %d, want %d", tc.year, tc.month, got, tc.want)
		}
	}
}
