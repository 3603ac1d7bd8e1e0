package grading

// Predefined scale IDs.
const (
	ScaleStandard   = "standard"
	ScalePlusMinus  = "plus_minus"
	ScalePercentage = "percentage"
	ScalePassFail   = "pass_fail"
)

// Predefined returns the built-in scales, keyed by ID.
func Predefined() map[string]Scale {
	scales := []Scale{
		{
			ID:   ScaleStandard,
			Name: "Standard (A-F)",
			Bands: []Band{
				{Label: "A", MinPercent: 90, MaxPercent: 100, GPAPoints: 4},
				{Label: "B", MinPercent: 80, MaxPercent: 90, GPAPoints: 3},
				{Label: "C", MinPercent: 70, MaxPercent: 80, GPAPoints: 2},
				{Label: "D", MinPercent: 60, MaxPercent: 70, GPAPoints: 1},
				{Label: "F", MinPercent: 0, MaxPercent: 60, GPAPoints: 0},
			},
		},
		{
			ID:   ScalePlusMinus,
			Name: "Plus/Minus (A+ to F)",
			Bands: []Band{
				{Label: "A+", MinPercent: 97, MaxPercent: 100, GPAPoints: 4},
				{Label: "A", MinPercent: 93, MaxPercent: 97, GPAPoints: 4},
				{Label: "A-", MinPercent: 90, MaxPercent: 93, GPAPoints: 3.7},
				{Label: "B+", MinPercent: 87, MaxPercent: 90, GPAPoints: 3.3},
				{Label: "B", MinPercent: 83, MaxPercent: 87, GPAPoints: 3},
				{Label: "B-", MinPercent: 80, MaxPercent: 83, GPAPoints: 2.7},
				{Label: "C+", MinPercent: 77, MaxPercent: 80, GPAPoints: 2.3},
				{Label: "C", MinPercent: 73, MaxPercent: 77, GPAPoints: 2},
				{Label: "C-", MinPercent: 70, MaxPercent: 73, GPAPoints: 1.7},
				{Label: "D+", MinPercent: 67, MaxPercent: 70, GPAPoints: 1.3},
				{Label: "D", MinPercent: 63, MaxPercent: 67, GPAPoints: 1},
				{Label: "D-", MinPercent: 60, MaxPercent: 63, GPAPoints: 0.7},
				{Label: "F", MinPercent: 0, MaxPercent: 60, GPAPoints: 0},
			},
		},
		{
			ID:   ScalePercentage,
			Name: "Percentage Only",
			Bands: []Band{
				{Label: "100%", MinPercent: 100, MaxPercent: 100, GPAPoints: 4},
				{Label: "90-99%", MinPercent: 90, MaxPercent: 100, GPAPoints: 3.5},
				{Label: "80-89%", MinPercent: 80, MaxPercent: 90, GPAPoints: 3},
				{Label: "70-79%", MinPercent: 70, MaxPercent: 80, GPAPoints: 2.5},
				{Label: "60-69%", MinPercent: 60, MaxPercent: 70, GPAPoints: 2},
				{Label: "0-59%", MinPercent: 0, MaxPercent: 60, GPAPoints: 0},
			},
		},
		{
			ID:   ScalePassFail,
			Name: "Pass/Fail",
			Bands: []Band{
				{Label: "Pass", MinPercent: 70, MaxPercent: 100, GPAPoints: 4},
				{Label: "Fail", MinPercent: 0, MaxPercent: 70, GPAPoints: 0},
			},
		},
	}

	byID := make(map[string]Scale, len(scales))
	for _, s := range scales {
		s.Predefined = true
		byID[s.ID] = s
	}
	return byID
}

// Standard returns the default A-F scale.
func Standard() Scale {
	return Predefined()[ScaleStandard]
}
