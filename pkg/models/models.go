package models

// Band identifiers as they appear in Cabrillo logs, lowest frequency first.
// "unknown" is kept for QSO rows whose frequency could not be classified.
var Bands = []string{
	"160m", "80m", "40m", "20m", "15m", "10m", "6m", "2m",
	"222", "432", "902", "1.2G", "2.3G", "3.4G", "5.7G",
	"10G", "24G", "47G", "75G", "119G", "142G", "241G",
	"unknown",
}

const BandUnknown = "unknown"

// Operating modes after normalization. Morse (CW) exchanges have a different
// transcription error profile than voice, which the similarity scoring uses.
const (
	ModePhone   = "PH"
	ModeCW      = "CW"
	ModeFM      = "FM"
	ModeDigital = "RY"
)

var Modes = []string{ModePhone, ModeCW, ModeFM, ModeDigital}

// ValidBand reports whether band is one of the declared band identifiers.
func ValidBand(band string) bool {
	for _, b := range Bands {
		if b == band {
			return true
		}
	}
	return false
}

// ValidMode reports whether mode is one of the normalized mode identifiers.
func ValidMode(mode string) bool {
	for _, m := range Modes {
		if m == mode {
			return true
		}
	}
	return false
}
