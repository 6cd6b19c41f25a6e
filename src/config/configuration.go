package config

import (
	"os"
	"strconv"
	"time"
)

func GetenvStr(key string) string {
	return os.Getenv(key)
}

func GetenvStrOr(key, fallback string) string {
	if v := GetenvStr(key); v != "" {
		return v
	}
	return fallback
}

func GetenvInt(key string) (*int, error) {
	s := GetenvStr(key)
	if s == "" {
		var i int
		return &i, nil
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		var i int
		return &i, err
	}
	return &v, nil
}

func GetenvBool(key string) (*bool, error) {
	s := GetenvStr(key)
	if s == "" {
		b := false
		return &b, nil
	}

	v, err := strconv.ParseBool(s)
	if err != nil {
		b := false
		return &b, err
	}
	return &v, nil
}

// GetenvMillis reads a duration given in milliseconds, falling back if unset or zero.
func GetenvMillis(key string, fallback time.Duration) (time.Duration, error) {
	v, err := GetenvInt(key)
	if err != nil {
		return fallback, err
	}
	if *v == 0 {
		return fallback, nil
	}
	return time.Duration(*v) * time.Millisecond, nil
}
