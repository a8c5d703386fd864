package places

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strings"
	"time"

	"sipsync/internal/pkg/common"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	maxStores   = 20
	earthRadius = 6371000.0
)

var (
	baseKeywords = []string{"cafe", "tea", "coffee", "supermarket", "grocery", "market"}
	shopTypes    = []string{"cafe", "coffee_shop", "tea", "supermarket", "convenience", "herbalist", "spices", "health_food"}
	priorityType = map[string]bool{"Cafe": true, "Tea": true, "Coffee Shop": true}
	titleCaser   = cases.Title(language.English)
)

// Store 附近商店
type Store struct {
	Name           string  `json:"name"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	Address        string  `json:"address"`
	Type           string  `json:"type"`
	DistanceMeters float64 `json:"distance_meters"`
}

type overpassResponse struct {
	Elements []struct {
		Lat  float64           `json:"lat"`
		Lon  float64           `json:"lon"`
		Tags map[string]string `json:"tags"`
	} `json:"elements"`
}

// Keywords 依食材擴充搜尋關鍵字
func Keywords(ingredients []string) []string {
	keywords := append([]string(nil), baseKeywords...)
	seen := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		seen[k] = true
	}
	add := func(ks ...string) {
		for _, k := range ks {
			if !seen[k] {
				seen[k] = true
				keywords = append(keywords, k)
			}
		}
	}

	for _, ing := range ingredients {
		ing = strings.ToLower(ing)
		if strings.Contains(ing, "milk") {
			add("dairy", "milk")
		}
		if strings.Contains(ing, "honey") {
			add("organic")
		}
		if strings.Contains(ing, "ginger") || strings.Contains(ing, "herbs") {
			add("spice", "herbalist")
		}
	}
	return keywords
}

// buildQuery 組合 Overpass QL 查詢
func buildQuery(lat, lon float64, radius int, keywords []string) string {
	around := fmt.Sprintf("(around:%d,%f,%f)", radius, lat, lon)

	var b strings.Builder
	b.WriteString("[out:json][timeout:25];\n(\n")
	fmt.Fprintf(&b, "  node[\"name\"~\"%s\",i]%s;\n", strings.Join(keywords, "|"), around)
	for _, shop := range shopTypes {
		fmt.Fprintf(&b, "  node[\"shop\"=\"%s\"]%s;\n", shop, around)
	}
	fmt.Fprintf(&b, "  node[\"amenity\"=\"cafe\"]%s;\n", around)
	b.WriteString(");\nout body;")
	return b.String()
}

// NearbyStores 搜尋附近可能有這些食材的商店，咖啡廳與茶行排在前面
func (c *Client) NearbyStores(ctx context.Context, lat, lon float64, ingredients []string) ([]Store, error) {
	start := time.Now()
	stores, err := c.nearbyStores(ctx, lat, lon, ingredients)
	c.metrics.ObserveCollaborator(overpassName, time.Since(start), err)
	return stores, err
}

func (c *Client) nearbyStores(ctx context.Context, lat, lon float64, ingredients []string) ([]Store, error) {
	query := buildQuery(lat, lon, c.radius, Keywords(ingredients))

	resp, err := c.overpass.R().
		SetContext(ctx).
		SetFormData(map[string]string{"data": query}).
		Post(c.overpassURL)
	if err != nil {
		return nil, common.NewCollaboratorError(overpassName, common.KindUnreachable,
			fmt.Errorf("failed to search stores: %w", err))
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, common.NewCollaboratorError(overpassName, common.KindStatus,
			fmt.Errorf("overpass API returned status %d", resp.StatusCode()))
	}

	var body overpassResponse
	if err := common.ParseJSONBytes(resp.Body(), &body); err != nil {
		return nil, common.NewCollaboratorError(overpassName, common.KindMalformed,
			fmt.Errorf("failed to parse overpass response: %w", err))
	}

	seen := make(map[string]bool)
	stores := make([]Store, 0, len(body.Elements))
	for _, el := range body.Elements {
		name := strings.TrimSpace(el.Tags["name"])
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		stores = append(stores, Store{
			Name:           name,
			Latitude:       el.Lat,
			Longitude:      el.Lon,
			Address:        address(el.Tags),
			Type:           storeType(el.Tags),
			DistanceMeters: math.Round(distance(lat, lon, el.Lat, el.Lon)),
		})
	}

	sort.SliceStable(stores, func(i, j int) bool {
		pi, pj := priorityType[stores[i].Type], priorityType[stores[j].Type]
		if pi != pj {
			return pi
		}
		return stores[i].DistanceMeters < stores[j].DistanceMeters
	})
	if len(stores) > maxStores {
		stores = stores[:maxStores]
	}
	return stores, nil
}

func storeType(tags map[string]string) string {
	if shop := tags["shop"]; shop != "" {
		return titleCaser.String(strings.ReplaceAll(shop, "_", " "))
	}
	if tags["amenity"] == "cafe" {
		return "Cafe"
	}
	return "Store"
}

func address(tags map[string]string) string {
	street := tags["addr:street"]
	if street == "" {
		return "Address not available"
	}
	line := street
	if number := tags["addr:housenumber"]; number != "" {
		line = number + " " + street
	}
	if city := tags["addr:city"]; city != "" {
		line += ", " + city
	}
	return line
}

// distance 兩點間的大圓距離（公尺）
func distance(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadius * math.Asin(math.Sqrt(a))
}
