package message

import "math"

// Celsius converts a raw controller temperature to degrees Celsius
func Celsius(raw byte) float64 {
	return float64(raw)/2 - 40
}

// Fahrenheit converts a raw controller temperature to degrees Fahrenheit
func Fahrenheit(raw byte) float64 {
	return float64(raw)*9/10 - 40
}

// RawFromCelsius converts degrees Celsius to the nearest raw value
func RawFromCelsius(c float64) byte {
	return clampRaw(math.Round((c + 40) * 2))
}

// RawFromFahrenheit converts degrees Fahrenheit to the nearest raw value
func RawFromFahrenheit(f float64) byte {
	return clampRaw(math.Round((f + 40) * 10 / 9))
}

func clampRaw(v float64) byte {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return byte(v)
}
