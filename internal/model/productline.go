package model

import "strings"

// ProductLine is the closed set of functional categories a briefing is
// classified into. The classifier must return exactly one of these.
type ProductLine string

const (
	ProductLinePush          ProductLine = "Push"
	ProductLineEmail         ProductLine = "Email"
	ProductLineSMS           ProductLine = "SMS"
	ProductLineInApp         ProductLine = "In-App"
	ProductLineOSM           ProductLine = "OSM"
	ProductLineWebP          ProductLine = "Web Personalization (WebP)"
	ProductLineCards         ProductLine = "Cards"
	ProductLineContentMgmt   ProductLine = "Content Management"
	ProductLineFlows         ProductLine = "Flows"
	ProductLineCampaignMgmt  ProductLine = "Campaign Management"
	ProductLineData          ProductLine = "Data"
	ProductLineSegmentation  ProductLine = "Segmentation"
	ProductLineAnalyze       ProductLine = "Analyze"
	ProductLineMLAI          ProductLine = "ML or AI"
	ProductLinePartnerInteg  ProductLine = "Partner Integrations"
	ProductLineWhatsApp      ProductLine = "WhatsApp"
	ProductLineRCS           ProductLine = "RCS"
	ProductLineOtherChannels ProductLine = "Other Channels"
	ProductLineSettings      ProductLine = "Settings"
	ProductLineMisc          ProductLine = "Miscellaneous & Others"
)

// AllProductLines lists every valid product line in display order.
func AllProductLines() []ProductLine {
	return []ProductLine{
		ProductLinePush,
		ProductLineEmail,
		ProductLineSMS,
		ProductLineInApp,
		ProductLineOSM,
		ProductLineWebP,
		ProductLineCards,
		ProductLineContentMgmt,
		ProductLineFlows,
		ProductLineCampaignMgmt,
		ProductLineData,
		ProductLineSegmentation,
		ProductLineAnalyze,
		ProductLineMLAI,
		ProductLinePartnerInteg,
		ProductLineWhatsApp,
		ProductLineRCS,
		ProductLineOtherChannels,
		ProductLineSettings,
		ProductLineMisc,
	}
}

// ParseProductLine matches raw classifier output against the enumeration,
// ignoring case and surrounding whitespace. Returns false for anything
// outside the closed set.
func ParseProductLine(raw string) (ProductLine, bool) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	if needle == "" {
		return "", false
	}
	for _, pl := range AllProductLines() {
		if strings.ToLower(string(pl)) == needle {
			return pl, true
		}
	}
	return "", false
}
