package app

import (
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/a-h/templ"
	"github.com/jackielii/ventas/internal/store"
	"github.com/jackielii/ventas/structpages"
)

// Widgets whose content depends on the browser (time zone, locale, embedded maps) are
// wrapped in ClientOnly. Their children are rendered by the hydrator's mount request,
// which carries no page context, so they must not resolve URLs.

// localClock shows the browser's current time.
func localClock(now time.Time) templ.Component {
	return structpages.ClientOnly(
		component(func(h *htmlWriter) {
			h.printf(`<time class="clock" data-local-clock datetime="%s">%s</time>`,
				now.UTC().Format(time.RFC3339), now.UTC().Format("15:04"))
		}),
		text("--:--"),
	)
}

// localDate shows t as a date in the browser's locale. The fallback is the ISO date.
func localDate(t time.Time) templ.Component {
	return structpages.ClientOnly(
		component(func(h *htmlWriter) {
			h.printf(`<time data-local-date datetime="%s">%s</time>`, t.UTC().Format(time.RFC3339), isoDate(t))
		}),
		text(isoDate(t)),
	)
}

// routeMap embeds an OpenStreetMap view around the stops of r.
func routeMap(r store.DeliveryRoute) templ.Component {
	return structpages.ClientOnly(
		component(func(h *htmlWriter) {
			src, ok := mapEmbedURL(r.Stops)
			if !ok {
				h.raw(`<p class="muted">No coordinates recorded for this route.</p>`)
				return
			}
			h.printf(`<iframe class="route-map" title="Map of %s" src="%s" loading="lazy"></iframe>`, r.Name, src)
		}),
		component(func(h *htmlWriter) {
			h.printf(`<p class="muted">Loading map of %s…</p>`, r.Name)
		}),
	)
}

// mapEmbedURL returns the embed URL of the bounding box of the located stops, marking the first.
func mapEmbedURL(stops []store.Stop) (string, bool) {
	minLat, minLng := math.Inf(1), math.Inf(1)
	maxLat, maxLng := math.Inf(-1), math.Inf(-1)
	var first *store.Stop
	for i, st := range stops {
		if st.Lat == 0 && st.Lng == 0 {
			continue
		}
		if first == nil {
			first = &stops[i]
		}
		minLat, maxLat = math.Min(minLat, st.Lat), math.Max(maxLat, st.Lat)
		minLng, maxLng = math.Min(minLng, st.Lng), math.Max(maxLng, st.Lng)
	}
	if first == nil {
		return "", false
	}
	const pad = 0.01
	q := url.Values{}
	q.Set("bbox", fmt.Sprintf("%.5f,%.5f,%.5f,%.5f", minLng-pad, minLat-pad, maxLng+pad, maxLat+pad))
	q.Set("layer", "mapnik")
	q.Set("marker", fmt.Sprintf("%.5f,%.5f", first.Lat, first.Lng))
	return "https://www.openstreetmap.org/export/embed.html?" + q.Encode(), true
}

// formatCoords validates and formats a stop position.
func formatCoords(st store.Stop) (string, error) {
	if st.Lat < -90 || st.Lat > 90 || st.Lng < -180 || st.Lng > 180 {
		return "", fmt.Errorf("stop %d has invalid coordinates %.5f,%.5f", st.Position, st.Lat, st.Lng)
	}
	if st.Lat == 0 && st.Lng == 0 {
		return "", nil
	}
	return fmt.Sprintf("%.5f, %.5f", st.Lat, st.Lng), nil
}
