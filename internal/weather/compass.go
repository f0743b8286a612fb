package weather

// windDirections maps ARSO's Slovene compass codes to English ones.
// "J" (jug) and "S" both mean south.
var windDirections = map[string]string{
	"S":  "S",
	"J":  "S",
	"SZ": "NW",
	"SV": "NE",
	"Z":  "W",
	"V":  "E",
	"JZ": "SW",
	"JV": "SE",
	"N":  "N",
}

// TranslateWindDirection returns the English compass code for an ARSO code.
// Unknown codes are returned unchanged.
func TranslateWindDirection(code string) string {
	if en, ok := windDirections[code]; ok {
		return en
	}
	return code
}
