package descriptions

// Tool descriptions with practical examples for the document verification workflow

const (
	DocAnalyzeDescription = `Analyze an acceptance-test (uji terima) PDF and open a review session.

**When to use:** First step for every document. Reads each page (digital text, or OCR for scanned pages), checks the required checklist sections, locates the Bill of Quantity page and reads its rows.

**Why it's useful:** Replaces the manual page-by-page search for BAUT, Laporan UT, BoQ, redline drawings and evidence photos, and pre-fills the BOQ rows so the reviewer only corrects them.

**Examples:**
• "Check baut-sto-bekasi.pdf for completeness"
• "Which pages of ut-2024-017.pdf contain the BOQ?"

**Common workflows:**
1. doc_analyze → review checklist → doc_submit_boq with corrected rows
2. doc_analyze on a new revision → compare NOK items with the previous run

**Best practices:** Detected BOQ rows are best-effort OCR output. Always confirm them against the page before submitting.`

	DocSubmitBOQDescription = `Submit the verified BOQ rows of a session and collect evidence photos for each designator.

**When to use:** After doc_analyze, once the designators and quantities are confirmed.

**Why it's useful:** Scans every page except the BOQ page for the caption patterns of each designator (e.g. JOIN CLOSURE for SC-OF-SM-24) and lists the pages that show it.

**Examples:**
• rows: [{"designator": "SC-OF-SM-24", "quantity": 24}, {"designator": "PU-AS-SC", "quantity": 6}]
• rows: ["SC-OF-SM-24=24", "PU-S7.0-400NM=2"]

**Best practices:** Duplicate designators keep the first quantity. Designators without a known caption pattern get an empty gallery and must be checked by hand.`

	DocRecordVerdictsDescription = `Record the reviewer's verdict for each BOQ designator.

**When to use:** After doc_submit_boq, once the evidence pages have been inspected.

**Verdicts:** sesuai (matches), tidak_sesuai (does not match), perlu_diperiksa (needs checking). Designators without a verdict default to perlu_diperiksa.

**Example:**
• verdicts: {"SC-OF-SM-24": {"verdict": "sesuai", "notes": "24 closures visible"}, "PU-AS-SC": "tidak_sesuai"}`

	DocReportDescription = `Produce the final verification report of a session.

**When to use:** After doc_record_verdicts.

**Output:** the checklist with page references, then one row per designator with quantity, evidence pages, verdict and notes.`

	DocResetDescription = `Reset a session back to BOQ input, discarding submitted rows, evidence and verdicts.

**When to use:** The BOQ was submitted with mistakes, or the review needs to start over. The document analysis itself is kept.`

	DocServerInfoDescription = `Get server information, the active checklist and label table, pipeline settings and usage guidance.

**When to use:** To discover available tools, check which checklist items are verified, or confirm OCR and rendering settings.`
)

// UsageGuidance is appended to the server information output
const UsageGuidance = `🎯 Workflow:
1. doc_analyze {path} → checklist results, BOQ page, detected rows, session_id
2. doc_submit_boq {session_id, rows} → evidence pages per designator
3. doc_record_verdicts {session_id, verdicts} → verdict per designator
4. doc_report {session_id} → final report
Use doc_reset {session_id} to re-enter the BOQ.`

// ToolInfo describes a tool for the server information output
type ToolInfo struct {
	Name        string
	Description string
	Parameters  string
}

// Tools lists every tool in workflow order
var Tools = []ToolInfo{
	{Name: "doc_analyze", Description: "Analyze a PDF and open a review session", Parameters: "path (required)"},
	{Name: "doc_submit_boq", Description: "Submit verified BOQ rows and collect evidence", Parameters: "session_id, rows (required)"},
	{Name: "doc_record_verdicts", Description: "Record a verdict per designator", Parameters: "session_id, verdicts (required)"},
	{Name: "doc_report", Description: "Final verification report", Parameters: "session_id (required)"},
	{Name: "doc_reset", Description: "Return a session to BOQ input", Parameters: "session_id (required)"},
	{Name: "doc_server_info", Description: "Server, checklist and pipeline information", Parameters: "none"},
}
