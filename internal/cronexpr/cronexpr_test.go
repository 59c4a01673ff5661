package cronexpr

import (
	"errors"
	"reflect"
	"testing"
)

func TestDecodeEmptyYieldsDefault(t *testing.T) {
	for _, expr := range []string{"", "   "} {
		d, err := Decode(expr)
		if err != nil {
			t.Fatalf("decode %q: %v", expr, err)
		}
		if !reflect.DeepEqual(d, Default()) {
			t.Fatalf("decode %q = %+v, want default %+v", expr, d, Default())
		}
	}
}

func TestDecodeDaily(t *testing.T) {
	d, err := Decode("0 0 2 * * ?")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Frequency != PerDay {
		t.Fatalf("frequency = %v, want %v", d.Frequency, PerDay)
	}
	want := TimeOfDay{Hour: 2, Minute: 0, Second: 0}
	if d.TimeOfDay != want {
		t.Fatalf("time = %+v, want %+v", d.TimeOfDay, want)
	}
}

func TestDecodeWeekly(t *testing.T) {
	d, err := Decode("00 30 09 * * MON,WED")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Frequency != PerWeek {
		t.Fatalf("frequency = %v, want %v", d.Frequency, PerWeek)
	}
	if !reflect.DeepEqual(d.Weekdays, []string{"MON", "WED"}) {
		t.Fatalf("weekdays = %v", d.Weekdays)
	}
	want := TimeOfDay{Hour: 9, Minute: 30, Second: 0}
	if d.TimeOfDay != want {
		t.Fatalf("time = %+v, want %+v", d.TimeOfDay, want)
	}
}

func TestDecodeToleratesCommaSpace(t *testing.T) {
	d, err := Decode("00 30 09 * * MON, WED")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(d.Weekdays, []string{"MON", "WED"}) {
		t.Fatalf("weekdays = %v", d.Weekdays)
	}
}

func TestDecodeMonthly(t *testing.T) {
	d, err := Decode("0 15 8 1,15 * ?")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Frequency != PerMonth {
		t.Fatalf("frequency = %v, want %v", d.Frequency, PerMonth)
	}
	if !reflect.DeepEqual(d.Days, []string{"1", "15"}) {
		t.Fatalf("days = %v", d.Days)
	}
	want := TimeOfDay{Hour: 8, Minute: 15}
	if d.TimeOfDay != want {
		t.Fatalf("time = %+v, want %+v", d.TimeOfDay, want)
	}
}

func TestDecodeHourly(t *testing.T) {
	d, err := Decode("0 15,45 * * * ?")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Frequency != PerHour {
		t.Fatalf("frequency = %v, want %v", d.Frequency, PerHour)
	}
	if !reflect.DeepEqual(d.Minutes, []string{"15", "45"}) {
		t.Fatalf("minutes = %v", d.Minutes)
	}
	if !reflect.DeepEqual(d.Seconds, []string{"0"}) {
		t.Fatalf("seconds = %v", d.Seconds)
	}
}

func TestDecodePerMinute(t *testing.T) {
	d, err := Decode("10,40 * * * * ?")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Frequency != PerMinute {
		t.Fatalf("frequency = %v, want %v", d.Frequency, PerMinute)
	}
	if !reflect.DeepEqual(d.Seconds, []string{"10", "40"}) {
		t.Fatalf("seconds = %v", d.Seconds)
	}
}

func TestDecodeEverySecondDegeneratesToDefault(t *testing.T) {
	d, err := Decode("* * * * * ?")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(d, Default()) {
		t.Fatalf("got %+v, want default", d)
	}
}

func TestDecodeFieldCountError(t *testing.T) {
	for _, expr := range []string{"0 0 2 * *", "0 0 2 * * ? 2026", "garbage"} {
		_, err := Decode(expr)
		if err == nil {
			t.Fatalf("decode %q: expected error", expr)
		}
		var formatErr *FormatError
		if !errors.As(err, &formatErr) {
			t.Fatalf("decode %q: error %T, want *FormatError", expr, err)
		}
	}
}

func TestDecodeBadTimeField(t *testing.T) {
	_, err := Decode("0 0 25 * * ?")
	var formatErr *FormatError
	if !errors.As(err, &formatErr) {
		t.Fatalf("error %T, want *FormatError", err)
	}
}

func TestEncodeWeekly(t *testing.T) {
	d := Default()
	d.Frequency = PerWeek
	d.Weekdays = []string{"MON", "WED"}
	d.TimeOfDay = TimeOfDay{Hour: 9, Minute: 30, Second: 0}
	if got, want := Encode(d), "00 30 09 * * MON,WED"; got != want {
		t.Fatalf("encode = %q, want %q", got, want)
	}
}

func TestEncodeHourlyResetsSeconds(t *testing.T) {
	d := Default()
	d.Frequency = PerHour
	d.Minutes = []string{"5"}
	d.Seconds = []string{"30"} // ignored, hourly always fires at second 0
	if got, want := Encode(d), "0 5 * * * ?"; got != want {
		t.Fatalf("encode = %q, want %q", got, want)
	}
}

func TestRoundTripAllFrequencies(t *testing.T) {
	cases := []ScheduleDescriptor{
		func() ScheduleDescriptor {
			d := Default()
			d.Frequency = PerMinute
			d.Seconds = []string{"5", "35"}
			return d
		}(),
		func() ScheduleDescriptor {
			d := Default()
			d.Frequency = PerHour
			d.Minutes = []string{"10", "50"}
			return d
		}(),
		func() ScheduleDescriptor {
			d := Default()
			d.Frequency = PerDay
			d.TimeOfDay = TimeOfDay{Hour: 23, Minute: 59, Second: 1}
			return d
		}(),
		func() ScheduleDescriptor {
			d := Default()
			d.Frequency = PerWeek
			d.Weekdays = []string{"TUE", "SAT", "SUN"}
			d.TimeOfDay = TimeOfDay{Hour: 6, Minute: 15, Second: 30}
			return d
		}(),
		func() ScheduleDescriptor {
			d := Default()
			d.Frequency = PerMonth
			d.Days = []string{"1", "15", "28"}
			d.TimeOfDay = TimeOfDay{Hour: 12}
			return d
		}(),
	}
	for _, want := range cases {
		got, err := Decode(Encode(want))
		if err != nil {
			t.Fatalf("%v: decode(encode): %v", want.Frequency, err)
		}
		if got.Frequency != want.Frequency {
			t.Fatalf("%v: frequency = %v", want.Frequency, got.Frequency)
		}
		switch want.Frequency {
		case PerMinute:
			if !reflect.DeepEqual(got.Seconds, want.Seconds) {
				t.Fatalf("%v: seconds = %v, want %v", want.Frequency, got.Seconds, want.Seconds)
			}
		case PerHour:
			if !reflect.DeepEqual(got.Minutes, want.Minutes) {
				t.Fatalf("%v: minutes = %v, want %v", want.Frequency, got.Minutes, want.Minutes)
			}
		case PerDay:
			if got.TimeOfDay != want.TimeOfDay {
				t.Fatalf("%v: time = %+v, want %+v", want.Frequency, got.TimeOfDay, want.TimeOfDay)
			}
		case PerWeek:
			if !reflect.DeepEqual(got.Weekdays, want.Weekdays) || got.TimeOfDay != want.TimeOfDay {
				t.Fatalf("%v: got %+v, want %+v", want.Frequency, got, want)
			}
		case PerMonth:
			if !reflect.DeepEqual(got.Days, want.Days) || got.TimeOfDay != want.TimeOfDay {
				t.Fatalf("%v: got %+v, want %+v", want.Frequency, got, want)
			}
		}
	}
}
