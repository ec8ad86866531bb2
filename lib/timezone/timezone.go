package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/New_York")
	if err != nil {
		panic(err)
	}
}

// force timezone to be eastern because the run hosts sometimes
// end up in other regions which will cause disturbances when
// deriving capture dates from <time.Time>.Year()/Month()/Day()
func Now() time.Time {
	return time.Now().In(Location)
}

// returns the first and last day of the week containing now,
// where weeks run sunday through saturday
func GetCurrentWeek(now time.Time) (time.Time, time.Time) {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	start = start.AddDate(0, 0, -int(start.Weekday()))
	stop := start.AddDate(0, 0, 6)
	return start, stop
}
