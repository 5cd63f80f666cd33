package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/ksred/pageturn-api/internal/types"
)

type saleView struct {
	Recipient    Contact
	Counterparty *Contact
	Sale         types.SaleRecord
}

var funcs = template.FuncMap{
	"rupees": func(v float64) string { return fmt.Sprintf("₹%.2f", v) },
}

var (
	approvedTemplate = template.Must(template.New("approved").Parse(`<!DOCTYPE html>
<html><body>
<p>Dear {{.Name}},</p>
<p>Your book <strong>{{.Title}}</strong> has been approved and is now listed on PageTurn.</p>
<p>Buyers can find it on the dashboard right away.</p>
<p>Happy selling,<br>The PageTurn Team</p>
</body></html>`))

	rejectedTemplate = template.Must(template.New("rejected").Parse(`<!DOCTYPE html>
<html><body>
<p>Dear {{.Name}},</p>
<p>Your book <strong>{{.Title}}</strong> was not approved for listing.</p>
<p><strong>Reason:</strong> {{.Reason}}</p>
<p>You can submit the book again after addressing the issue.</p>
<p>The PageTurn Team</p>
</body></html>`))

	soldTemplate = template.Must(template.New("sold").Funcs(funcs).Parse(`<!DOCTYPE html>
<html><body>
<p>Dear {{.Recipient.Name}},</p>
<p>Great news! Your book <strong>{{.Sale.Title}}</strong> by {{.Sale.Author}} has been sold for {{rupees .Sale.Price}}.</p>
{{with .Counterparty}}<p><strong>Buyer:</strong> {{.Name}} ({{.Email}})</p>{{end}}
<p>Transaction ID: {{.Sale.TransactionID}}</p>
<p>Please get in touch with the buyer to arrange the handover.</p>
<p>The PageTurn Team</p>
</body></html>`))

	purchasedTemplate = template.Must(template.New("purchased").Funcs(funcs).Parse(`<!DOCTYPE html>
<html><body>
<p>Dear {{.Recipient.Name}},</p>
<p>Your purchase of <strong>{{.Sale.Title}}</strong> by {{.Sale.Author}} for {{rupees .Sale.Price}} was successful.</p>
{{with .Counterparty}}<p><strong>Seller:</strong> {{.Name}} ({{.Email}})</p>{{end}}
<p>Transaction ID: {{.Sale.TransactionID}}</p>
<p>The seller will contact you to arrange the handover.</p>
<p>Happy reading,<br>The PageTurn Team</p>
</body></html>`))
)

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
