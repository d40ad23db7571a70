package enums

import "fmt"

// DesignPosition names the face of a product a design area sits on.
type DesignPosition string

const (
	DesignPositionFront  DesignPosition = "front"
	DesignPositionBack   DesignPosition = "back"
	DesignPositionLeft   DesignPosition = "left"
	DesignPositionRight  DesignPosition = "right"
	DesignPositionTop    DesignPosition = "top"
	DesignPositionBottom DesignPosition = "bottom"
)

var validDesignPositions = []DesignPosition{
	DesignPositionFront,
	DesignPositionBack,
	DesignPositionLeft,
	DesignPositionRight,
	DesignPositionTop,
	DesignPositionBottom,
}

func (p DesignPosition) String() string {
	return string(p)
}

func (p DesignPosition) IsValid() bool {
	for _, candidate := range validDesignPositions {
		if candidate == p {
			return true
		}
	}
	return false
}

func ParseDesignPosition(value string) (DesignPosition, error) {
	for _, candidate := range validDesignPositions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid design position %q", value)
}
