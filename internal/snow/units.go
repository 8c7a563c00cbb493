package snow

import "math"

const inchesPerCM = 0.3937007874

// Inches converts centimeters to inches.
func Inches(cm float64) float64 {
	return cm * inchesPerCM
}

// RoundTenth rounds to one decimal place, halves away from zero.
func RoundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// SeasonInches converts a summed centimeter series into the displayed value.
func SeasonInches(cm float64) float64 {
	return RoundTenth(Inches(cm))
}
