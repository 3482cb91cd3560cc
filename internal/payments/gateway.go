package payments

import "context"

type Link struct {
	Href   string `json:"href"`
	Rel    string `json:"rel"`
	Method string `json:"method"`
}

// Intent est une intention de paiement ouverte chez le processeur externe :
// un identifiant de transaction et les liens de redirection associés.
type Intent struct {
	ID    string
	Links []Link
}

// Gateway est le contrat logique d'un processeur de paiement à approbation
// par redirection. Le montant passé à CreateIntent est dans la devise locale,
// la conversion est interne au processeur.
type Gateway interface {
	Name() string
	CreateIntent(ctx context.Context, total float64) (*Intent, error)
	Capture(ctx context.Context, transactionID string) (bool, error)
}

// ApprovalLink extrait le lien d'approbation (rel "approve") d'une intention.
func ApprovalLink(links []Link) string {
	for _, l := range links {
		if l.Rel == "approve" {
			return l.Href
		}
	}
	return ""
}
