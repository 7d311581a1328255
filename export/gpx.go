package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"time"

	"github.com/theoremus-urban-solutions/fleet-tracking/history"
)

// GPX 1.1 document structure, track-only.
type gpxDoc struct {
	XMLName xml.Name `xml:"gpx"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`
	Xmlns   string   `xml:"xmlns,attr"`
	Trk     gpxTrk   `xml:"trk"`
}

type gpxTrk struct {
	Name string    `xml:"name"`
	Seg  gpxTrkSeg `xml:"trkseg"`
}

type gpxTrkSeg struct {
	Points []gpxTrkPt `xml:"trkpt"`
}

type gpxTrkPt struct {
	Lat  float64 `xml:"lat,attr"`
	Lon  float64 `xml:"lon,attr"`
	Time string  `xml:"time"`
	Ext  *gpxExt `xml:"extensions,omitempty"`
}

type gpxExt struct {
	SpeedKMH float64 `xml:"speed_kmh"`
	Course   float64 `xml:"course"`
}

const gpxCreator = "fleet-tracking"

// WriteRouteGPX writes the route as a single-segment GPX 1.1 track named
// after the vehicle.
func WriteRouteGPX(w io.Writer, vehicleID string, points []history.RoutePoint) error {
	doc := gpxDoc{
		Version: "1.1",
		Creator: gpxCreator,
		Xmlns:   "http://www.topografix.com/GPX/1/1",
		Trk:     gpxTrk{Name: vehicleID},
	}
	for _, p := range points {
		doc.Trk.Seg.Points = append(doc.Trk.Seg.Points, gpxTrkPt{
			Lat:  p.Latitude,
			Lon:  p.Longitude,
			Time: p.Timestamp.UTC().Format(time.RFC3339),
			Ext:  &gpxExt{SpeedKMH: p.Speed, Course: p.Heading},
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write gpx header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode gpx: %w", err)
	}
	return enc.Close()
}
