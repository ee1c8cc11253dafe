package manifest

// civilFromDays converts a day count since the Unix epoch (1970-01-01)
// into a proleptic Gregorian (year, month, day) triple, using Howard
// Hinnant's days-from-civil algorithm run in reverse. This avoids
// pulling in a date library just to stamp a manifest's built_at field.
func civilFromDays(z int64) (year int, month int, day int) {
	z += 719468
	era := z
	if z < 0 {
		era -= 146096
	}
	era /= 146097
	doe := z - era*146097                                   // [0, 146096]
	yoe := (doe - doe/1460 + doe/36524 - doe/146096) / 365   // [0, 399]
	y := yoe + era*400
	doy := doe - (365*yoe + yoe/4 - yoe/100) // [0, 365]
	mp := (5*doy + 2) / 153                  // [0, 11]
	d := doy - (153*mp+2)/5 + 1              // [1, 31]
	var m int64
	if mp < 10 {
		m = mp + 3
	} else {
		m = mp - 9
	}
	if m <= 2 {
		y++
	}
	return int(y), int(m), int(d)
}

// civilTimestamp renders a Unix timestamp (seconds since the epoch, UTC)
// as "YYYY-MM-DDTHH:MM:SSZ" using the civil-calendar conversion above
// for the date portion and plain integer arithmetic for the time of
// day.
func civilTimestamp(unixSeconds int64) string {
	days := unixSeconds / 86400
	secOfDay := unixSeconds % 86400
	if secOfDay < 0 {
		secOfDay += 86400
		days--
	}
	y, m, d := civilFromDays(days)
	hh := secOfDay / 3600
	mm := (secOfDay % 3600) / 60
	ss := secOfDay % 60
	return pad4(y) + "-" + pad2(m) + "-" + pad2(d) + "T" + pad2(int(hh)) + ":" + pad2(int(mm)) + ":" + pad2(int(ss)) + "Z"
}

func pad2(n int) string {
	if n < 10 {
		return "0" + itoa(n)
	}
	return itoa(n)
}

func pad4(n int) string {
	s := itoa(n)
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
