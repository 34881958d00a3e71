package app

import "strings"

type topic int

const (
	topicDefault topic = iota
	topicFire
	topicConcrete
	topicFoundation
	topicPermit
)

type rule struct {
	topic    topic
	keywords []string
}

// Evaluated in order; the first rule with a matching keyword wins.
var topicRules = []rule{
	{topicFire, []string{"fire", "cháy", "safety"}},
	{topicConcrete, []string{"concrete", "bê tông", "strength"}},
	{topicFoundation, []string{"foundation", "móng", "soil"}},
	{topicPermit, []string{"permit", "giấy phép", "license"}},
}

func classify(text string) topic {
	lower := strings.ToLower(text)
	for _, r := range topicRules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.topic
			}
		}
	}
	return topicDefault
}

// catalog holds one canned reply per topic.
type catalog map[topic]string

func (c catalog) reply(text string) string {
	if resp, ok := c[classify(text)]; ok {
		return resp
	}
	return c[topicDefault]
}

var generalCatalog = catalog{
	topicDefault: `I can help you with questions about Vietnamese construction standards and regulations. Here are some topics I can assist with:

**Standards & Codes:**
- TCVN (Vietnamese National Standards)
- QCVN (National Technical Regulations)
- Building codes and compliance requirements

**Common Topics:**
- Structural design requirements
- Fire safety regulations
- Material specifications
- Building permit processes

What would you like to know about?`,
	topicFire: `According to **QCVN 06:2022** - National Technical Regulation on Fire Safety for Buildings and Structures:

**Key Requirements:**
- Buildings must have fire escape routes with minimum width of 1.2m
- Fire-resistant doors must meet EI 60 standard minimum
- Smoke detectors required in all rooms larger than 50m2
- Fire extinguishers must be placed every 20m in corridors

**For High-rise Buildings (>28m):**
- REI 120 for structural elements
- Automatic sprinkler systems required
- Emergency lighting with 2-hour backup

Would you like more details on any specific requirement?`,
	topicConcrete: `According to **TCVN 5574:2018** - Concrete and Reinforced Concrete Structures:

**Concrete Strength Classes:**
- B15 (M200): Light structures, non-load bearing
- B20 (M250): Residential foundations
- B25 (M300): Standard structural use
- B30 (M400): High-rise buildings, bridges

**Key Requirements:**
- Minimum cover depth: 25-50mm (depending on exposure)
- Water-cement ratio: max 0.55 for durability
- Slump: 50-150mm for different applications

**Quality Control:**
- Cube test specimens required every 50m3
- 28-day strength verification mandatory

Do you need information about specific applications?`,
	topicFoundation: `According to **TCVN 9362:2012** - Foundation Design Standards:

**Soil Investigation Requirements:**
- Minimum 2 boreholes per 300m2
- Depth: at least 2x foundation width below base
- SPT tests every 1.5m depth

**Foundation Types:**
- Strip foundations: for walls and light structures
- Pad foundations: for columns (min 300mm thick)
- Raft foundations: for poor soil conditions
- Pile foundations: when bearing capacity < 100 kPa

**Safety Factors:**
- Dead load: 1.35
- Live load: 1.5
- Seismic: per TCVN 9386:2012

Any specific foundation design questions?`,
	topicPermit: `**Building Permit Process in Vietnam:**

**Required Documents:**
1. Application form (Mau don xin phep xay dung)
2. Land use right certificate
3. Architectural drawings (scale 1:100 or 1:200)
4. Structural calculations
5. Fire safety approval (for buildings >5 floors)
6. Environmental impact assessment (if required)

**Processing Time:**
- Individual houses: 15 working days
- Commercial buildings: 30 working days
- Industrial projects: 45 working days

**Common Rejection Reasons:**
- Incomplete documentation
- Violation of zoning regulations
- Insufficient setback distances

Need help with any specific permit requirement?`,
}

// documentCatalog answers about the analyzed document. Foundation and permit
// questions fall back to the general answers.
var documentCatalog = catalog{
	topicDefault: `Based on my analysis of the uploaded document, I can provide insights on the construction compliance aspects. The document has been processed and analyzed against Vietnamese construction standards (TCVN) and regulations (QCVN).

**Key Findings:**
- The document contains structural specifications that need verification against TCVN 5574:2018
- Fire safety requirements should be cross-referenced with QCVN 06:2022
- Material specifications appear to comply with standard requirements

Would you like me to elaborate on any specific aspect?`,
	topicFire: `According to **QCVN 06:2022** - National Technical Regulation on Fire Safety for Buildings and Structures, the fire rating requirements are as follows:

For high-rise buildings (over 28 meters):
- **Structural elements**: REI 120 minimum
- **Load-bearing walls**: REI 90 minimum
- **Fire barriers**: EI 60 minimum

The document shows a fire rating of **REI 90**, which does **not meet** the REI 120 requirement for high-rise structures.

**Recommendation:** Review the fire protection design and consider additional fire-resistant coatings or structural modifications.`,
	topicConcrete: `According to **TCVN 5574:2018** - Concrete and Reinforced Concrete Structures Design Standard:

The concrete specifications in your document show:
- **Compressive strength**: 32 MPa (Grade B25)
- **Water-cement ratio**: 0.45
- **Slump**: 120 mm

This **complies** with the minimum requirements for structural concrete in foundation work, which specifies ≥ 30 MPa.

The mix design appears suitable for the intended application.`,
	topicFoundation: generalCatalog[topicFoundation],
	topicPermit:     generalCatalog[topicPermit],
}
