package notification

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topglass/internal/domain"
)

func sampleSummary() domain.LeadSummary {
	return domain.LeadSummary{
		LeadID:             "11111111-1111-4111-8111-111111111111",
		Name:               "M Jean Dupont",
		Email:              "jean.dupont@example.fr",
		Phone:              "0612345678",
		VehicleBrand:       "RENAULT",
		VehicleModel:       "CLIO",
		VehicleType:        "BERLINE, 5 portes",
		RegistrationPlate:  "AB-123-CD",
		VIN:                "VF1RFB00123456789",
		Location:           "Marseille",
		ServiceType:        domain.ServiceGlazing,
		SelectedGlassZones: []string{"Pare-brise", "Lunette Arrière"},
		Description:        "Impact au centre",
	}
}

func TestSubject(t *testing.T) {
	s := sampleSummary()
	assert.Equal(t, "🚗 Nouvelle demande de devis - M Jean Dupont - Vitrage / Pare-brise", Subject(s))

	s.ServiceType = domain.ServiceBodywork
	assert.True(t, strings.HasSuffix(Subject(s), "- Carrosserie"))
}

func TestRender(t *testing.T) {
	html, text, err := Render(sampleSummary(), "https://topglassfrance.com/admin")
	require.NoError(t, err)

	assert.Contains(t, html, `href="tel:0612345678"`)
	assert.Contains(t, html, `href="mailto:jean.dupont@example.fr"`)
	assert.Contains(t, html, "background-color: #0ea5e9")
	assert.Contains(t, html, "VF1RFB00123456789")
	assert.Contains(t, html, "Pare-brise, Lunette Arrière")
	assert.Contains(t, html, `href="https://topglassfrance.com/admin"`)

	assert.Contains(t, text, "Nom: M Jean Dupont")
	assert.Contains(t, text, "Immatriculation: AB-123-CD")
	assert.Contains(t, text, "VIN: VF1RFB00123456789")
	assert.Contains(t, text, "Zones: Pare-brise, Lunette Arrière")
	assert.Contains(t, text, "Description: Impact au centre")
	assert.Contains(t, text, "Voir le détail dans l'admin: https://topglassfrance.com/admin")
}

func TestRender_OptionalSectionsAndEscaping(t *testing.T) {
	s := sampleSummary()
	s.ServiceType = domain.ServiceBodywork
	s.VIN, s.Description, s.SelectedGlassZones = "", "", nil
	s.Name = `<script>alert("x")</script>`

	html, text, err := Render(s, "https://topglassfrance.com/admin")
	require.NoError(t, err)

	assert.Contains(t, html, "background-color: #f97316")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "<strong>VIN</strong>")
	assert.NotContains(t, html, "<strong>Description</strong>")

	assert.NotContains(t, text, "VIN:")
	assert.NotContains(t, text, "Zones:")
	assert.NotContains(t, text, "Description:")
}
