package domain

type Category string

func (c Category) String() string {
	return string(c)
}

const (
	CategoryMotor   Category = "motor"
	CategoryFrame   Category = "frame"
	CategoryStack   Category = "stack"
	CategoryCamera  Category = "camera"
	CategoryProp    Category = "prop"
	CategoryBattery Category = "battery"
	CategoryOther   Category = "other"
)

var Categories = []Category{
	CategoryMotor,
	CategoryFrame,
	CategoryStack,
	CategoryCamera,
	CategoryProp,
	CategoryBattery,
	CategoryOther,
}

// IsValid reports whether c is one of the closed taxonomy values.
func (c Category) IsValid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func (c Category) DisplayName() string {
	switch c {
	case CategoryMotor:
		return "Motors"
	case CategoryFrame:
		return "Frames"
	case CategoryStack:
		return "Flight Stacks"
	case CategoryCamera:
		return "Cameras"
	case CategoryProp:
		return "Propellers"
	case CategoryBattery:
		return "Batteries"
	default:
		return "Other"
	}
}
