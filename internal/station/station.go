package station

// Station is one entry in the tuner: a named live stream URL.
type Station struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Genre string `json:"genre,omitempty"`
	URL   string `json:"url"`
	Home  string `json:"home,omitempty"`
	Promo string `json:"promo,omitempty"`
	Video bool   `json:"video,omitempty"`
}

// Defaults returns the built-in directory. User stations from the config file
// are merged on top by NewDirectory.
func Defaults() []Station {
	return []Station{
		{
			ID:    "groove-salad",
			Name:  "SomaFM Groove Salad",
			Genre: "ambient",
			URL:   "https://ice1.somafm.com/groovesalad-128-mp3",
			Home:  "https://somafm.com/groovesalad/",
			Promo: "Groove Salad: a nicely chilled plate of ambient beats",
		},
		{
			ID:    "drone-zone",
			Name:  "SomaFM Drone Zone",
			Genre: "ambient",
			URL:   "https://ice1.somafm.com/dronezone-128-mp3",
			Home:  "https://somafm.com/dronezone/",
		},
		{
			ID:    "secret-agent",
			Name:  "SomaFM Secret Agent",
			Genre: "lounge",
			URL:   "https://ice1.somafm.com/secretagent-128-mp3",
			Home:  "https://somafm.com/secretagent/",
			Promo: "Secret Agent: the soundtrack for your stylish, mysterious life",
		},
		{
			ID:    "radio-paradise",
			Name:  "Radio Paradise Main Mix",
			Genre: "eclectic",
			URL:   "https://stream.radioparadise.com/mp3-192",
			Home:  "https://radioparadise.com/",
		},
		{
			ID:    "kexp",
			Name:  "KEXP 90.3 Seattle",
			Genre: "alternative",
			URL:   "https://kexp.streamguys1.com/kexp160.aac",
			Home:  "https://kexp.org/",
		},
		{
			ID:    "nasa-tv",
			Name:  "NASA TV",
			Genre: "science",
			URL:   "https://ntv1.akamaized.net/hls/live/2014075/NASA-NTV1-HLS/master.m3u8",
			Home:  "https://www.nasa.gov/nasatv",
			Video: true,
		},
	}
}
