package service

import (
	"time"

	"github.com/idaliopessoa/idDigital/model"
)

// signatureAssetType marks the rendered signature image among the signature
// capture items; other items in that section are raw stroke data.
const signatureAssetType = "Png"

// TransformSchedule maps a raw Certfy schedule onto the flat DocumentRecord.
// Every extraction is independently optional: a missing capture section or
// sub-field becomes the empty string, never an error. CreatedAt is left zero;
// the store assigns it at first persistence.
func TransformSchedule(payload *model.SchedulePayload, documentID string, now time.Time) *model.DocumentRecord {
	docItem := payload.Capture(model.CaptureDocument).FirstItem()
	ocr := &model.OCRDocumentReport{}
	if docItem != nil && docItem.OCR != nil {
		ocr = docItem.OCR
	}

	form := payload.Capture(model.CapturePersonal).FirstItem()

	faceURL := ""
	if face := payload.Capture(model.CaptureLiveness).FirstItem(); face != nil {
		faceURL = face.URL
	}

	signatureURL := ""
	if sig := payload.Capture(model.CaptureSignature).ItemOfType(signatureAssetType); sig != nil {
		signatureURL = sig.URL
	}

	issueDate := ""
	employee := ""
	if payload != nil {
		issueDate = FormatDate(payload.DateCompleted)
		employee = payload.Employee
	}

	// The raw CPF seeds the influencer id before any formatting; the
	// formatted value is what the card displays.
	rawCPF := firstNonEmpty(form.FormValue("CPF"), ocr.CPF)
	influencerID := GenerateInfluencerID(rawCPF, now.UnixMilli())

	fullName := firstNonEmpty(form.FormValue("Nome"), ocr.DocumentName, employee)
	birthDate := FormatDate(firstNonEmpty(form.FormValue("Data de nascimento"), ocr.BirthDate))

	rgUF := ""
	if ocr.RG != "" {
		rgUF = ocr.RG + "/" + firstNonEmpty(ocr.RGIssuer, model.DefaultRGIssuer)
	}

	return &model.DocumentRecord{
		ID:                documentID,
		FullName:          fullName,
		Parent1Name:       ocr.Filiacao1,
		Parent2Name:       ocr.Filiacao2,
		InfluencerID:      influencerID,
		CPF:               FormatCPF(rawCPF),
		IssueDate:         issueDate,
		RGUF:              rgUF,
		SignatureImage:    signatureURL,
		BirthDate:         birthDate,
		Birthplace:        firstNonEmpty(ocr.BirthplaceCity, model.DefaultBirthplace),
		Nationality:       model.DefaultNationality,
		IssuePlaceAndDate: model.IssuePlace + " " + issueDate,
		PresidentSign:     "",
		FaceImage:         faceURL,
		RawData:           payload,
	}
}

// firstNonEmpty returns the first non-empty string, or "".
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
