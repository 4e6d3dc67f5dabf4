package payables

// StatusMeta is display metadata for a domain status value.
type StatusMeta struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

var paymentMethods = map[string]StatusMeta{
	"bank_transfer": {Label: "Bank Transfer", Color: "blue"},
	"check":         {Label: "Check", Color: "purple"},
	"cash":          {Label: "Cash", Color: "green"},
	"credit_card":   {Label: "Credit Card", Color: "orange"},
	"other":         {Label: "Other", Color: "gray"},
}

var vendorStatuses = map[string]StatusMeta{
	"active":   {Label: "Active", Color: "green"},
	"inactive": {Label: "Inactive", Color: "gray"},
	"blocked":  {Label: "Blocked", Color: "red"},
}

var billStatuses = map[string]StatusMeta{
	"draft":          {Label: "Draft", Color: "gray"},
	"pending":        {Label: "Pending Approval", Color: "yellow"},
	"approved":       {Label: "Approved", Color: "blue"},
	"partially_paid": {Label: "Partially Paid", Color: "orange"},
	"paid":           {Label: "Paid", Color: "green"},
	"overdue":        {Label: "Overdue", Color: "red"},
	"void":           {Label: "Void", Color: "gray"},
}

var poStatuses = map[string]StatusMeta{
	"draft":     {Label: "Draft", Color: "gray"},
	"sent":      {Label: "Sent", Color: "blue"},
	"confirmed": {Label: "Confirmed", Color: "purple"},
	"received":  {Label: "Received", Color: "green"},
	"billed":    {Label: "Billed", Color: "teal"},
	"cancelled": {Label: "Cancelled", Color: "red"},
}

func FormatPaymentMethod(method string) StatusMeta { return lookup(paymentMethods, method) }

func FormatVendorStatus(status string) StatusMeta { return lookup(vendorStatuses, status) }

func FormatBillStatus(status string) StatusMeta { return lookup(billStatuses, status) }

func FormatPOStatus(status string) StatusMeta { return lookup(poStatuses, status) }

// Unknown values fall back to the raw status in gray.
func lookup(table map[string]StatusMeta, status string) StatusMeta {
	if meta, ok := table[status]; ok {
		return meta
	}
	return StatusMeta{Label: status, Color: "gray"}
}
