package model

import (
	"strings"
	"time"
)

// DocumentRecord is the flat, display-ready representation of one identity
// document. It is immutable after creation: the pipeline only ever writes a
// record once per id and reads it thereafter. Empty string means
// "unknown / not provided"; fields are never null in the persisted record.
type DocumentRecord struct {
	ID                string           `json:"id" bson:"_id"`
	FullName          string           `json:"nomeCompleto" bson:"nomeCompleto"`
	Parent1Name       string           `json:"filiacao1" bson:"filiacao1"`
	Parent2Name       string           `json:"filiacao2" bson:"filiacao2"`
	InfluencerID      string           `json:"numeroInfluenciador" bson:"numeroInfluenciador"`
	CPF               string           `json:"cpf" bson:"cpf"`
	IssueDate         string           `json:"dataEmissao" bson:"dataEmissao"`
	RGUF              string           `json:"rgUf" bson:"rgUf"`
	SignatureImage    string           `json:"imagemAssinatura" bson:"imagemAssinatura"`
	BirthDate         string           `json:"dataNascimento" bson:"dataNascimento"`
	Birthplace        string           `json:"naturalidade" bson:"naturalidade"`
	Nationality       string           `json:"nacionalidade" bson:"nacionalidade"`
	IssuePlaceAndDate string           `json:"localDataExpedicao" bson:"localDataExpedicao"`
	PresidentSign     string           `json:"assinaturaPresidente" bson:"assinaturaPresidente"`
	FaceImage         string           `json:"imagemFace" bson:"imagemFace"`
	CreatedAt         time.Time        `json:"createdAt" bson:"createdAt"`
	RawData           *SchedulePayload `json:"rawData" bson:"rawData"`
}

// Capture section names as they appear in the Certfy schedule report.
const (
	CaptureDocument  = "Documento de Identificação"
	CapturePersonal  = "Dados pessoais"
	CaptureLiveness  = "Prova de vida"
	CaptureSignature = "Assinatura"
)

// Fixed display constants for the Brazilian identity card face.
const (
	DefaultNationality = "Brasileira"
	DefaultBirthplace  = "São Paulo"
	DefaultRGIssuer    = "SSP"
	IssuePlace         = "Brasília/DF"
)

// SchedulePayload is the raw Certfy schedule response. The shape is owned by
// Certfy and may vary, so every field is optional and every access must
// degrade to the empty-string sentinel.
type SchedulePayload struct {
	ScheduleID     string          `json:"scheduleId" bson:"scheduleId"`
	Employee       string          `json:"employee,omitempty" bson:"employee,omitempty"`
	DateCompleted  string          `json:"dateCompleted,omitempty" bson:"dateCompleted,omitempty"`
	CapturesReport []CaptureReport `json:"capturesReport,omitempty" bson:"capturesReport,omitempty"`
}

// CaptureReport is one named verification step (document OCR, personal-data
// form, liveness, signature) inside a schedule.
type CaptureReport struct {
	Name  string        `json:"name" bson:"name"`
	Items []CaptureItem `json:"captureItemReport,omitempty" bson:"captureItemReport,omitempty"`
}

type CaptureItem struct {
	OCR       *OCRDocumentReport `json:"ocrDocumentReport,omitempty" bson:"ocrDocumentReport,omitempty"`
	FormItems []FormItem         `json:"captureFormItens,omitempty" bson:"captureFormItens,omitempty"`
	URL       string             `json:"url,omitempty" bson:"url,omitempty"`
	Type      string             `json:"type,omitempty" bson:"type,omitempty"`
}

type OCRDocumentReport struct {
	DocumentName   string `json:"documentName,omitempty" bson:"documentName,omitempty"`
	Filiacao1      string `json:"filiacao1,omitempty" bson:"filiacao1,omitempty"`
	Filiacao2      string `json:"filiacao2,omitempty" bson:"filiacao2,omitempty"`
	CPF            string `json:"cpf,omitempty" bson:"cpf,omitempty"`
	BirthDate      string `json:"data_de_nascimento,omitempty" bson:"data_de_nascimento,omitempty"`
	RG             string `json:"rg,omitempty" bson:"rg,omitempty"`
	RGIssuer       string `json:"orgao_emissor_do_RG,omitempty" bson:"orgao_emissor_do_RG,omitempty"`
	BirthplaceCity string `json:"naturalidade_Cidade,omitempty" bson:"naturalidade_Cidade,omitempty"`
}

type FormItem struct {
	Key   string `json:"key" bson:"key"`
	Value string `json:"value" bson:"value"`
}

// Capture returns the capture section whose trimmed name matches, or nil.
func (p *SchedulePayload) Capture(name string) *CaptureReport {
	if p == nil {
		return nil
	}
	for i := range p.CapturesReport {
		if strings.TrimSpace(p.CapturesReport[i].Name) == name {
			return &p.CapturesReport[i]
		}
	}
	return nil
}

// FirstItem returns the first capture item, or nil when the section is nil or
// has no items.
func (c *CaptureReport) FirstItem() *CaptureItem {
	if c == nil || len(c.Items) == 0 {
		return nil
	}
	return &c.Items[0]
}

// ItemOfType returns the first capture item with the given asset type, or nil.
func (c *CaptureReport) ItemOfType(assetType string) *CaptureItem {
	if c == nil {
		return nil
	}
	for i := range c.Items {
		if c.Items[i].Type == assetType {
			return &c.Items[i]
		}
	}
	return nil
}

// FormValue looks up a personal-data form entry by key, returning "" when the
// item is nil or the key is absent.
func (i *CaptureItem) FormValue(key string) string {
	if i == nil {
		return ""
	}
	for _, f := range i.FormItems {
		if f.Key == key {
			return f.Value
		}
	}
	return ""
}
