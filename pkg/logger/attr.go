package logger

import "log/slog"

// Error returns a standard attribute for error values.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

// Component tags a record with the emitting component name.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// UserID tags a record with the acting user.
func UserID(id string) slog.Attr {
	return slog.String("user_id", id)
}

// TourID tags a record with the tour being operated on.
func TourID(id string) slog.Attr {
	return slog.String("tour_id", id)
}
