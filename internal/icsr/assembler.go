package icsr

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/openpv/icsrgen/internal/casedata"
	"github.com/openpv/icsrgen/internal/mapping"
)

// HL7 namespaces and the fixed ICSR message interaction.
const (
	hl7Namespace    = "urn:hl7-org:v3"
	xsiNamespace    = "http://www.w3.org/2001/XMLSchema-instance"
	schemaLocation  = "urn:hl7-org:v3 MCCI_IN200100UV01.xsd"
	interactionName = "MCCI_IN200100UV01"
)

// Root OIDs for the identifier namespaces used throughout the document.
const (
	oidMessageID = "2.16.840.1.113883.3.989.2.1.3.1"
	oidReceiver  = "2.16.840.1.113883.3.989.2.1.3.2"
	oidSender    = "2.16.840.1.113883.3.989.2.1.3.3"
	oidCase      = "2.16.840.1.113883.3.989.2.1.3.4"
	oidPatient   = "2.16.840.1.113883.3.989.2.1.3.5"
	oidEvent     = "2.16.840.1.113883.3.989.2.1.3.6"
	oidDrug      = "2.16.840.1.113883.3.989.2.1.3.7"
	oidTest      = "2.16.840.1.113883.3.989.2.1.3.8"
	oidCondition = "2.16.840.1.113883.3.989.2.1.3.9"
	oidAuthor    = "2.16.840.1.113883.3.989.2.1.3.10"
)

// Code system OIDs.
const (
	oidInteractionID = "2.16.840.1.113883.1.6"
	oidTriggerEvent  = "2.16.840.1.113883.1.18"
	oidActCode       = "2.16.840.1.113883.5.4"
	oidNCIThesaurus  = "2.16.840.1.113883.3.26.1.1"
	oidMedDRA        = "2.16.840.1.113883.6.163"
	oidRouteOfAdmin  = "2.16.840.1.113883.5.112"
	oidSexCodes      = "2.16.840.1.113883.3.989.2.1.1.20"
	oidOutcomeCodes  = "2.16.840.1.113883.3.989.2.1.1.19"
	oidActionCodes   = "2.16.840.1.113883.3.989.2.1.1.17"
)

// E2B data element tags the assembler consults the mapping table for.
const (
	tagCaseID      = "C.1.1"
	tagReceiptDate = "C.1.5"
	tagNarrative   = "H.1"
	tagPatientID   = "D.1"
	tagAge         = "D.2.2a"
	tagWeight      = "D.3"
	tagHeight      = "D.4"
	tagGender      = "D.5"
	tagConditions  = "D.7.1.r"
	tagEvents      = "E.i"
	tagTests       = "F.r"
	tagDrugs       = "G.k"
	tagAuthorID    = "C.2.r.1"
	tagAuthorName  = "C.2.r.2"
	tagAuthorOrg   = "C.2.r.3.1"
	tagAuthorDept  = "C.2.r.3.2"
)

// Canonical JSON paths, used when the mapping table does not override a tag.
const (
	pathCaseID      = "pv_case.identifier"
	pathReceiptDate = "pv_case.literature.initial_receipt_date"
	pathNarrative   = "pv_case.narrative"
	pathPatientID   = "pv_case.patient.identifier"
	pathGender      = "pv_case.patient.gender"
	pathAge         = "pv_case.patient.age"
	pathAgeUnits    = "pv_case.patient.age_units"
	pathWeight      = "pv_case.patient.weight"
	pathWeightUnits = "pv_case.patient.weight_units"
	pathHeight      = "pv_case.patient.height"
	pathHeightUnits = "pv_case.patient.height_units"
	pathEvents      = "pv_case.events"
	pathDrugs       = "pv_case.drugs"
	pathTests       = "pv_case.diagnostic_tests"
	pathConditions  = "pv_case.conditions"
	pathAuthorID    = "pv_case.literature.author.identifier"
	pathAuthorName  = "pv_case.literature.author.name"
	pathAuthorOrg   = "pv_case.literature.author.author_organizations[0].organization.title"
	pathAuthorDept  = "pv_case.literature.author.author_organizations[0].organization.department"
)

const unknownID = "UNKNOWN"

// Assembler builds the E2B R3 ICSR document tree for one case record.
type Assembler struct {
	mapper *mapping.Table
	eval   *casedata.Evaluator
	log    zerolog.Logger

	// Now and NewID are swappable for deterministic output in tests.
	Now   func() time.Time
	NewID func() string
}

// NewAssembler creates an assembler over the given mapping table and
// evaluator.
func NewAssembler(mapper *mapping.Table, eval *casedata.Evaluator, log zerolog.Logger) *Assembler {
	return &Assembler{
		mapper: mapper,
		eval:   eval,
		log:    log,
		Now:    time.Now,
		NewID:  uuid.NewString,
	}
}

// Assemble produces the complete MCCI_IN200100UV01 message envelope with one
// investigation event for the case. When messageID is empty a new one is
// generated.
func (a *Assembler) Assemble(messageID string) *Node {
	if messageID == "" {
		messageID = a.NewID()
	}

	root := NewNode(interactionName).
		Set("xmlns", hl7Namespace).
		Set("xmlns:xsi", xsiNamespace).
		Set("ITSVersion", "XML_1.0").
		Set("xsi:schemaLocation", schemaLocation)

	root.Child("id").Set("extension", messageID).Set("root", oidMessageID)
	root.Child("creationTime").Set("value", FormatTimestamp(a.Now().UTC()))
	root.Child("interactionId").Set("extension", interactionName).Set("root", oidInteractionID)
	root.Child("processingCode").Set("code", "P")
	root.Child("processingModeCode").Set("code", "T")
	root.Child("acceptAckCode").Set("code", "AL")

	root.Append(a.buildReceiver())
	root.Append(a.buildSender())
	root.Append(a.buildControlActProcess())

	a.log.Debug().Str("messageID", messageID).Msg("Assembled ICSR document")
	return root
}

// buildReceiver emits the fixed receiver routing block.
func (a *Assembler) buildReceiver() *Node {
	receiver := NewNode("receiver").Set("typeCode", "RCV")
	device := receiver.Child("device").Set("classCode", "DEV").Set("determinerCode", "INSTANCE")
	device.Child("id").Set("extension", "RECEIVER").Set("root", oidReceiver)
	return receiver
}

// buildSender emits the fixed sender routing block.
func (a *Assembler) buildSender() *Node {
	sender := NewNode("sender").Set("typeCode", "SND")
	device := sender.Child("device").Set("classCode", "DEV").Set("determinerCode", "INSTANCE")
	device.Child("id").Set("extension", "SENDER").Set("root", oidSender)
	return sender
}

func (a *Assembler) buildControlActProcess() *Node {
	controlAct := NewNode("controlActProcess").Set("classCode", "CACT").Set("moodCode", "EVN")
	controlAct.Child("code").Set("code", "PORR_TE049018UV").Set("codeSystem", oidTriggerEvent)

	subject := controlAct.Child("subject").Set("typeCode", "SUBJ")
	subject.Append(a.buildInvestigationEvent())
	return controlAct
}

func (a *Assembler) buildInvestigationEvent() *Node {
	inv := NewNode("investigationEvent").Set("classCode", "INVSTG").Set("moodCode", "EVN")

	caseID := a.stringAtOr(tagCaseID, pathCaseID, unknownID)
	inv.Child("id").Set("extension", caseID).Set("root", oidCase)
	inv.Child("code").Set("code", "PAT_ADV_EVNT").Set("codeSystem", oidActCode)

	if narrative := a.stringAt(tagNarrative, pathNarrative); narrative != "" {
		inv.Child("text").SetText(narrative)
	}

	effectiveTime := inv.Child("effectiveTime")
	if receiptDate := a.stringAt(tagReceiptDate, pathReceiptDate); receiptDate != "" {
		effectiveTime.Child("low").Set("value", NormalizeDate(receiptDate))
	}

	inv.Append(a.buildPatient())
	for _, component := range a.buildAdverseEvents() {
		inv.Append(component)
	}
	for _, component := range a.buildProducts() {
		inv.Append(component)
	}
	for _, component := range a.buildDiagnosticTests() {
		inv.Append(component)
	}
	for _, component := range a.buildMedicalHistory() {
		inv.Append(component)
	}
	inv.Append(a.buildAuthor())

	return inv
}

// buildPatient emits the subject1 block with patient demographics.
func (a *Assembler) buildPatient() *Node {
	subject := NewNode("subject1").Set("typeCode", "SBJ")
	role := subject.Child("primaryRole").Set("classCode", "PAT")

	patientID := a.stringAtOr(tagPatientID, pathPatientID, unknownID)
	role.Child("id").Set("extension", patientID).Set("root", oidPatient)

	subjectOf := role.Child("subjectOf2").Set("typeCode", "SBJ")
	observation := subjectOf.Child("observation").Set("classCode", "OBS").Set("moodCode", "EVN")

	a.addPatientCharacteristics(observation)
	return subject
}

// addPatientCharacteristics emits gender, age, weight and height. Gender is
// emitted whenever the path resolves, even to an empty string; the quantity
// characteristics need a non-empty value.
func (a *Assembler) addPatientCharacteristics(parent *Node) {
	if gender, ok := a.resolveAt(tagGender, pathGender); ok && gender != nil {
		parent.Child("code").Set("code", "C16576").Set("codeSystem", oidNCIThesaurus)
		parent.Child("value").
			Set("xsi:type", "CE").
			Set("code", GenderCode(stringify(gender))).
			Set("codeSystem", oidSexCodes)
	}

	if age := a.stringAt(tagAge, pathAge); age != "" {
		unit := a.pathString(pathAgeUnits, "a")
		parent.Append(quantityComponent("C25150", age, unit))
	}
	if weight := a.stringAt(tagWeight, pathWeight); weight != "" {
		unit := a.pathString(pathWeightUnits, "kg")
		parent.Append(quantityComponent("C25208", weight, unit))
	}
	if height := a.stringAt(tagHeight, pathHeight); height != "" {
		unit := a.pathString(pathHeightUnits, "cm")
		parent.Append(quantityComponent("C25347", height, unit))
	}
}

// quantityComponent builds a component/observation pair holding one PQ value.
func quantityComponent(code, value, unit string) *Node {
	component := NewNode("component")
	observation := component.Child("observation").Set("classCode", "OBS").Set("moodCode", "EVN")
	observation.Child("code").Set("code", code).Set("codeSystem", oidNCIThesaurus)
	observation.Child("value").
		Set("xsi:type", "PQ").
		Set("value", value).
		Set("unit", unit)
	return component
}

// buildAdverseEvents emits one adverseEffectObservation per event flagged as
// an adverse event.
func (a *Assembler) buildAdverseEvents() []*Node {
	events := a.sequenceAt(tagEvents, pathEvents)
	var components []*Node

	for idx, item := range events {
		event, ok := item.(map[string]any)
		if !ok || !truthy(event["is_adverse_event"]) {
			continue
		}

		component := NewNode("component")
		obs := component.Child("adverseEffectObservation").Set("classCode", "OBS").Set("moodCode", "EVN")

		identifier := getOr(event, "identifier", fmt.Sprintf("EVT-%d", idx))
		obs.Child("id").Set("extension", identifier).Set("root", oidEvent)

		if meddraCode := getString(event, "meddra_code"); meddraCode != "" {
			obs.Child("code").
				Set("code", meddraCode).
				Set("codeSystem", oidMedDRA).
				Set("displayName", getString(event, "meddra_term"))
		}

		if description := getString(event, "description"); description != "" {
			obs.Child("text").SetText(description)
		}

		addDateWindow(obs, event, "start_date", "end_date")

		if seriousness := getString(event, "seriousness_type"); seriousness != "" {
			serious := obs.Child("component").Child("observation").
				Set("classCode", "OBS").Set("moodCode", "EVN")
			serious.Child("code").Set("code", "C48275").Set("codeSystem", oidNCIThesaurus)
			value := "false"
			if seriousness == "Serious" {
				value = "true"
			}
			serious.Child("value").Set("xsi:type", "BL").Set("value", value)
		}

		if outcome, ok := event["outcome"].(map[string]any); ok && len(outcome) > 0 {
			obs.Append(buildOutcome(outcome))
		}

		components = append(components, component)
	}
	return components
}

// buildOutcome emits the outcome relationship, including the nested death
// observation when the outcome marks a death.
func buildOutcome(outcome map[string]any) *Node {
	rel := NewNode("outboundRelationship").Set("typeCode", "OUTC")
	observation := rel.Child("observation").Set("classCode", "OBS").Set("moodCode", "EVN")
	observation.Child("code").Set("code", "C49496").Set("codeSystem", oidNCIThesaurus)
	observation.Child("value").
		Set("xsi:type", "CE").
		Set("code", OutcomeCode(getString(outcome, "name"))).
		Set("codeSystem", oidOutcomeCodes)

	if truthy(outcome["is_death"]) {
		death := observation.Child("component").Child("observation").
			Set("classCode", "OBS").Set("moodCode", "EVN")
		death.Child("code").Set("code", "C48275").Set("codeSystem", oidNCIThesaurus)
		if cause := getString(outcome, "cause_of_death"); cause != "" {
			death.Child("text").SetText(cause)
		}
	}
	return rel
}

// buildProducts emits one substanceAdministration per drug.
func (a *Assembler) buildProducts() []*Node {
	drugs := a.sequenceAt(tagDrugs, pathDrugs)
	var components []*Node

	for idx, item := range drugs {
		drug, ok := item.(map[string]any)
		if !ok {
			continue
		}

		component := NewNode("component")
		admin := component.Child("substanceAdministration").Set("classCode", "SBADM").Set("moodCode", "EVN")

		identifier := getOr(drug, "identifier", fmt.Sprintf("DRG-%d", idx))
		admin.Child("id").Set("extension", identifier).Set("root", oidDrug)

		if name := getString(drug, "name"); name != "" {
			product := admin.Child("consumable").Child("manufacturedProduct").Set("classCode", "MANU")
			product.Child("name").SetText(name)
		}

		if dosage := getString(drug, "dosage"); dosage != "" {
			dose := admin.Child("doseQuantity").Set("value", dosage)
			if units := getString(drug, "dosage_units"); units != "" {
				dose.Set("unit", units)
			}
		}

		if route := getString(drug, "route_of_administration"); route != "" {
			admin.Child("routeCode").
				Set("code", RouteCode(route)).
				Set("codeSystem", oidRouteOfAdmin)
		}

		addDateWindow(admin, drug, "start_date", "end_date")

		if role := getString(drug, "role"); role != "" {
			admin.Append(pertinentObservation("C53261", DrugRoleCode(role), oidOutcomeCodes))
		}
		if action := getString(drug, "action_taken"); action != "" {
			admin.Append(pertinentObservation("C49647", ActionTakenCode(action), oidActionCodes))
		}

		components = append(components, component)
	}
	return components
}

// pertinentObservation builds an outboundRelationship carrying one coded
// value, used for drug role and action taken.
func pertinentObservation(code, valueCode, valueSystem string) *Node {
	rel := NewNode("outboundRelationship").Set("typeCode", "PERT")
	observation := rel.Child("observation").Set("classCode", "OBS").Set("moodCode", "EVN")
	observation.Child("code").Set("code", code).Set("codeSystem", oidNCIThesaurus)
	observation.Child("value").
		Set("xsi:type", "CE").
		Set("code", valueCode).
		Set("codeSystem", valueSystem)
	return rel
}

// buildDiagnosticTests emits one observation per diagnostic test.
func (a *Assembler) buildDiagnosticTests() []*Node {
	tests := a.sequenceAt(tagTests, pathTests)
	var components []*Node

	for idx, item := range tests {
		test, ok := item.(map[string]any)
		if !ok {
			continue
		}

		component := NewNode("component")
		obs := component.Child("observation").Set("classCode", "OBS").Set("moodCode", "EVN")

		identifier := getOr(test, "identifier", fmt.Sprintf("DIA-%d", idx))
		obs.Child("id").Set("extension", identifier).Set("root", oidTest)

		if meddraCode := getString(test, "meddra_code"); meddraCode != "" {
			obs.Child("code").
				Set("code", meddraCode).
				Set("codeSystem", oidMedDRA).
				Set("displayName", getString(test, "meddra_term"))
		}

		result := getString(test, "test_results")
		resultText := getString(test, "test_results_text")
		if result != "" || resultText != "" {
			value := obs.Child("value")
			if result != "" {
				value.Set("xsi:type", "PQ").Set("value", result)
				if units := getString(test, "test_units"); units != "" {
					value.Set("unit", units)
				}
			}
			if resultText != "" {
				obs.Child("text").SetText(resultText)
			}
		}

		if date := firstOf(test, "date_of_test", "date_of_test_text"); date != "" {
			obs.Child("effectiveTime").Set("value", NormalizeDate(date))
		}

		components = append(components, component)
	}
	return components
}

// buildMedicalHistory emits one observation per prior condition.
func (a *Assembler) buildMedicalHistory() []*Node {
	conditions := a.sequenceAt(tagConditions, pathConditions)
	var components []*Node

	for idx, item := range conditions {
		condition, ok := item.(map[string]any)
		if !ok {
			continue
		}

		component := NewNode("component")
		obs := component.Child("observation").Set("classCode", "OBS").Set("moodCode", "EVN")

		identifier := getOr(condition, "identifier", fmt.Sprintf("CON-%d", idx))
		obs.Child("id").Set("extension", identifier).Set("root", oidCondition)

		if meddraCode := getString(condition, "meddra_code"); meddraCode != "" {
			obs.Child("code").
				Set("code", meddraCode).
				Set("codeSystem", oidMedDRA).
				Set("displayName", getString(condition, "meddra_term"))
		}

		if comments := getString(condition, "comments"); comments != "" {
			obs.Child("text").SetText(comments)
		}

		addDateWindow(obs, condition, "start_date", "end_date")

		components = append(components, component)
	}
	return components
}

// buildAuthor emits the reporter block.
func (a *Assembler) buildAuthor() *Node {
	author := NewNode("author").Set("typeCode", "AUT")
	entity := author.Child("assignedEntity").Set("classCode", "ASSIGNED")

	authorID := a.stringAtOr(tagAuthorID, pathAuthorID, unknownID)
	entity.Child("id").Set("extension", authorID).Set("root", oidAuthor)

	if name := a.stringAt(tagAuthorName, pathAuthorName); name != "" {
		person := entity.Child("assignedPerson").Set("classCode", "PSN")
		person.Child("name").SetText(name)
	}

	if title := a.stringAt(tagAuthorOrg, pathAuthorOrg); title != "" {
		org := entity.Child("representedOrganization").Set("classCode", "ORG")
		org.Child("name").SetText(title)

		if dept := a.stringAt(tagAuthorDept, pathAuthorDept); dept != "" {
			whole := org.Child("asOrganizationPartOf").Child("wholeOrganization").Set("classCode", "ORG")
			whole.Child("name").SetText(dept)
		}
	}
	return author
}

// addDateWindow emits an effectiveTime low/high window onto parent. The
// window is gated on the start date; the end date is only considered when a
// start date is given. Each date falls back to its _text variant.
func addDateWindow(parent *Node, obj map[string]any, startKey, endKey string) {
	start := firstOf(obj, startKey, startKey+"_text")
	if start == "" {
		return
	}
	window := parent.Child("effectiveTime")
	window.Child("low").Set("value", NormalizeDate(start))

	if end := firstOf(obj, endKey, endKey+"_text"); end != "" {
		window.Child("high").Set("value", NormalizeDate(end))
	}
}

// pathFor consults the mapping table for the tag's path, falling back to the
// canonical path when the tag is unmapped or repeating.
func (a *Assembler) pathFor(tag, fallback string) string {
	if a.mapper == nil {
		return fallback
	}
	if path, repeating := a.mapper.Lookup(tag); path != "" && !repeating {
		return path
	}
	return fallback
}

// resolveAt resolves the mapped path for a tag.
func (a *Assembler) resolveAt(tag, fallback string) (any, bool) {
	return a.eval.Resolve(a.pathFor(tag, fallback))
}

// stringAt resolves the mapped path for a tag as a string, empty on absence.
func (a *Assembler) stringAt(tag, fallback string) string {
	value, ok := a.resolveAt(tag, fallback)
	if !ok {
		return ""
	}
	return stringify(value)
}

// stringAtOr is stringAt with a non-empty fallback value.
func (a *Assembler) stringAtOr(tag, fallbackPath, fallbackValue string) string {
	if s := a.stringAt(tag, fallbackPath); s != "" {
		return s
	}
	return fallbackValue
}

// pathString resolves a literal path as a string with a default.
func (a *Assembler) pathString(path, fallback string) string {
	value, ok := a.eval.Resolve(path)
	if !ok {
		return fallback
	}
	if s := stringify(value); s != "" {
		return s
	}
	return fallback
}

// sequenceAt resolves the mapped path for a tag as a sequence.
func (a *Assembler) sequenceAt(tag, fallback string) []any {
	value, ok := a.resolveAt(tag, fallback)
	if !ok {
		return nil
	}
	seq, _ := value.([]any)
	return seq
}
