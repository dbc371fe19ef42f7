package services

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
)

// Partner is a third party that fulfills offsite redemptions: instead of
// in-store pickup, the partner contacts the customer to arrange delivery.
type Partner struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Contact  string `json:"contact,omitempty"`
	LogoData string `json:"logoData,omitempty"`
}

const partnerLogosDir = "./static/partner-logos"

var fulfillmentPartners = []Partner{
	{Code: "ENTREGA01", Name: "Entrega Express", Contact: "contato@entregaexpress.example"},
	{Code: "BRINDES02", Name: "Brindes & Cia", Contact: "atendimento@brindesecia.example"},
	{Code: "VIAGEM03", Name: "Clube Viagens", Contact: "resgates@clubeviagens.example"},
}

var partnerLogos = map[string]string{
	"ENTREGA01": "entrega-express.svg",
	"BRINDES02": "brindes-cia.svg",
	"VIAGEM03":  "clube-viagens.svg",
}

type PartnerService struct{}

func NewPartnerService() *PartnerService {
	return &PartnerService{}
}

// GetAllPartners lists fulfillment partners
// @Summary List fulfillment partners
// @Description List the third parties handling offsite reward fulfillment, with inlined logos
// @Tags partners
// @Produce json
// @Success 200 {array} Partner
// @Router /partners [get]
func (s *PartnerService) GetAllPartners(w http.ResponseWriter, r *http.Request) {
	partners := make([]Partner, len(fulfillmentPartners))
	copy(partners, fulfillmentPartners)

	for i := range partners {
		logoFile, ok := partnerLogos[partners[i].Code]
		if !ok {
			continue
		}
		data, err := os.ReadFile(filepath.Join(partnerLogosDir, logoFile))
		if err != nil {
			continue
		}
		partners[i].LogoData = base64.StdEncoding.EncodeToString(data)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(partners)
}
