package orders

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"autostore_back_end/internal/models"
	"autostore_back_end/internal/payments"
)

// Tx est le contexte transactionnel opaque passé du store aux mutations
// d'inventaire pour que commande et disponibilité commitent ensemble.
type Tx any

// Store est la persistance relationnelle des commandes.
type Store interface {
	Transact(ctx context.Context, fn func(tx Tx) error) error
	Create(ctx context.Context, tx Tx, o *models.Order) error
	Update(ctx context.Context, tx Tx, o *models.Order) error
	Get(ctx context.Context, id int) (*models.Order, error)
	GetByTransactionID(ctx context.Context, token string) (*models.Order, error)
	List(ctx context.Context, page, limit int) ([]models.Order, error)
}

// Inventory est la passerelle vers le catalogue : elle possède le drapeau de
// disponibilité et doit le muter de façon compare-and-swap (pas de
// last-writer-wins sous course).
type Inventory interface {
	Get(ctx context.Context, id int) (*models.Vehicle, error)
	Reserve(ctx context.Context, tx Tx, id int) error
	Release(ctx context.Context, tx Tx, id int) error
}

// Cache est la couche Redis : entrées commande, listes versionnées et verrou
// distribué pour la capture.
type Cache interface {
	GetOrder(ctx context.Context, id int) (*models.Order, bool)
	SetOrder(ctx context.Context, o *models.Order)
	DelOrder(ctx context.Context, id int)
	GetList(ctx context.Context, page, limit int) ([]models.Order, bool)
	SetList(ctx context.Context, page, limit int, list []models.Order)
	BumpListVersion(ctx context.Context)
	Lock(ctx context.Context, key string, ttl time.Duration) bool
	Unlock(ctx context.Context, key string)
}

// Notifier reçoit les événements de paiement (e-mail de confirmation).
type Notifier interface {
	OrderPaid(o *models.Order)
}

const (
	// TTL du verrou de capture : minutes et non secondes, pour tolérer un
	// aller-retour lent du processeur sans jamais bloquer définitivement
	// les captures suivantes si le process meurt.
	captureLockTTL = 2 * time.Minute

	defaultPageLimit = 10
	maxPageLimit     = 50
)

// Service orchestre le cycle de vie des commandes : création avec réservation
// atomique, annulation avec libération, transitions de statut et
// réconciliation de la capture de paiement.
type Service struct {
	store     Store
	inventory Inventory
	cache     Cache
	gateways  map[string]payments.Gateway
	notifier  Notifier
	lockTTL   time.Duration
}

func NewService(store Store, inventory Inventory, cache Cache, gateways []payments.Gateway, notifier Notifier) *Service {
	gws := make(map[string]payments.Gateway, len(gateways))
	for _, gw := range gateways {
		gws[strings.ToLower(gw.Name())] = gw
	}
	return &Service{
		store:     store,
		inventory: inventory,
		cache:     cache,
		gateways:  gws,
		notifier:  notifier,
		lockTTL:   captureLockTTL,
	}
}

// CanAccessOrder est la politique d'autorisation unique appliquée par toutes
// les lectures et mutations : un admin voit tout, un client seulement ses
// propres commandes.
func CanAccessOrder(role string, requesterID int, o *models.Order) bool {
	return role == models.RoleAdmin || o.UserID == requesterID
}

// Create valide la demande, réserve l'inventaire et ouvre l'intention de
// paiement avant de persister la commande dans une transaction unique.
func (s *Service) Create(ctx context.Context, userID int, vehicleIDs []int, shippingAddress, paymentMethod, notes string) (*models.Order, error) {
	if len(vehicleIDs) == 0 {
		return nil, NewValidation("Au moins un véhicule est requis")
	}

	// Doublons rejetés avant toute I/O.
	seen := make(map[int]struct{}, len(vehicleIDs))
	for _, id := range vehicleIDs {
		if _, dup := seen[id]; dup {
			return nil, NewValidation("IDs de véhicules dupliqués")
		}
		seen[id] = struct{}{}
	}

	// Toutes les fiches véhicules sont chargées (en parallèle) avant de
	// décider quoi que ce soit : aucune réservation partielle n'est visible.
	vehicles := make([]models.Vehicle, len(vehicleIDs))
	g, gctx := errgroup.WithContext(ctx)
	for i, id := range vehicleIDs {
		g.Go(func() error {
			v, err := s.inventory.Get(gctx, id)
			if err != nil {
				return err
			}
			vehicles[i] = *v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, v := range vehicles {
		if !v.IsAvailable {
			return nil, NewValidation("Véhicule %d non disponible", v.ID)
		}
	}

	var total float64
	for _, v := range vehicles {
		total += v.Price
	}

	order := &models.Order{
		UserID:          userID,
		Vehicles:        vehicles,
		Total:           total,
		ShippingAddress: shippingAddress,
		PaymentMethod:   paymentMethod,
		Notes:           notes,
		Status:          models.OrderPending,
	}

	// L'intention de paiement est créée avant la transaction : une panne du
	// processeur ne laisse ni ligne de commande ni réservation derrière elle.
	if gw, ok := s.gateways[strings.ToLower(paymentMethod)]; ok {
		intent, err := gw.CreateIntent(ctx, total)
		if err != nil {
			return nil, fmt.Errorf("création de l'intention de paiement: %w", err)
		}
		order.PaymentTransactionID = intent.ID
		order.PaymentApprovalLink = payments.ApprovalLink(intent.Links)
	}

	err := s.store.Transact(ctx, func(tx Tx) error {
		if err := s.store.Create(ctx, tx, order); err != nil {
			return err
		}
		for _, v := range order.Vehicles {
			if err := s.inventory.Reserve(ctx, tx, v.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// Une intention de paiement déjà ouverte n'est pas annulée ici :
		// les intents orphelins sont réconciliés manuellement.
		return nil, err
	}

	s.cache.BumpListVersion(ctx)
	s.cache.SetOrder(ctx, order)

	log.Printf("🧾 Commande %d créée pour l'utilisateur %d (%.2f, %s)", order.ID, userID, total, paymentMethod)
	return order, nil
}

// FindOne lit une commande, cache d'abord. L'autorisation est appliquée même
// sur un hit : le cache stocke la commande brute, pas une vue filtrée par
// demandeur.
func (s *Service) FindOne(ctx context.Context, id, requesterID int, role string) (*models.Order, error) {
	if o, ok := s.cache.GetOrder(ctx, id); ok {
		if !CanAccessOrder(role, requesterID, o) {
			return nil, NewForbidden("Accès refusé")
		}
		return o, nil
	}

	o, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.SetOrder(ctx, o)

	if !CanAccessOrder(role, requesterID, o) {
		return nil, NewForbidden("Accès refusé")
	}
	return o, nil
}

// FindAll liste les commandes paginées. La liste mise en cache est la liste
// complète de la page : le filtre propriétaire est appliqué après coup.
func (s *Service) FindAll(ctx context.Context, requesterID int, role string, page, limit int) ([]models.Order, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	list, ok := s.cache.GetList(ctx, page, limit)
	if !ok {
		var err error
		list, err = s.store.List(ctx, page, limit)
		if err != nil {
			return nil, err
		}
		s.cache.SetList(ctx, page, limit, list)
	}

	if role == models.RoleAdmin {
		return list, nil
	}
	own := make([]models.Order, 0, len(list))
	for _, o := range list {
		if o.UserID == requesterID {
			own = append(own, o)
		}
	}
	return own, nil
}

// Cancel annule une commande PENDING et relibère chaque véhicule dans la même
// transaction que le changement de statut.
func (s *Service) Cancel(ctx context.Context, id, requesterID int, role, reason string) (*models.Order, error) {
	order, err := s.FindOne(ctx, id, requesterID, role)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderCancelled {
		return nil, NewValidation("La commande est déjà annulée")
	}
	if order.Status != models.OrderPending {
		return nil, NewValidation("Seule une commande en attente peut être annulée (statut actuel: %s)", order.Status)
	}

	err = s.store.Transact(ctx, func(tx Tx) error {
		order.Status = models.OrderCancelled
		order.CancellationReason = reason
		if err := s.store.Update(ctx, tx, order); err != nil {
			return err
		}
		for _, v := range order.Vehicles {
			if err := s.inventory.Release(ctx, tx, v.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.DelOrder(ctx, id)
	s.cache.BumpListVersion(ctx)

	log.Printf("🚫 Commande %d annulée (%s)", id, reason)
	return order, nil
}

// UpdateStatus applique une transition de statut via la table explicite :
// toute transition non listée est refusée, admin compris.
func (s *Service) UpdateStatus(ctx context.Context, id int, next models.OrderStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, NewValidation("Statut inconnu: %s", next)
	}
	order, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.persistStatus(ctx, order, next); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Service) MarkAsPaid(ctx context.Context, id int) (*models.Order, error) {
	return s.UpdateStatus(ctx, id, models.OrderPaid)
}

func (s *Service) MarkAsShipped(ctx context.Context, id int) (*models.Order, error) {
	return s.UpdateStatus(ctx, id, models.OrderShipped)
}

// CapturePayment est la capture authentifiée : mêmes règles d'accès que la
// lecture, puis capture par l'identifiant de transaction stocké.
func (s *Service) CapturePayment(ctx context.Context, id, requesterID int, role string) (*models.Order, error) {
	order, err := s.FindOne(ctx, id, requesterID, role)
	if err != nil {
		return nil, err
	}
	return s.capture(ctx, order)
}

// CapturePaymentByTransactionID est le chemin du callback : le token fait
// office de capacité, aucune identité d'appelant n'est vérifiée.
func (s *Service) CapturePaymentByTransactionID(ctx context.Context, token string) (*models.Order, error) {
	order, err := s.store.GetByTransactionID(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.capture(ctx, order)
}

func (s *Service) capture(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.PaymentTransactionID == "" {
		return nil, NewValidation("Commande sans transaction de paiement")
	}

	completed, err := s.captureTransaction(ctx, order.PaymentMethod, order.PaymentTransactionID)
	if err != nil {
		return nil, err
	}
	if !completed {
		return nil, NewValidation("Paiement non complété")
	}

	if err := s.persistStatus(ctx, order, models.OrderPaid); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		go s.notifier.OrderPaid(order)
	}
	log.Printf("💰 Paiement capturé pour la commande %d (transaction %s)", order.ID, order.PaymentTransactionID)
	return order, nil
}

// captureTransaction est la primitive de capture : verrou distribué sur
// l'identifiant de transaction, puis un seul appel au processeur. Un verrou
// déjà tenu (callback dupliqué, double soumission) vaut "non complété" sans
// recontacter le processeur. Le verrou est toujours relâché.
func (s *Service) captureTransaction(ctx context.Context, paymentMethod, transactionID string) (bool, error) {
	gw, ok := s.gateways[strings.ToLower(paymentMethod)]
	if !ok {
		return false, NewValidation("Méthode de paiement sans processeur externe: %s", paymentMethod)
	}

	lockKey := "payment-capture:" + transactionID
	if !s.cache.Lock(ctx, lockKey, s.lockTTL) {
		log.Printf("🔁 Capture déjà en cours pour %s, tentative ignorée", transactionID)
		return false, nil
	}
	defer s.cache.Unlock(ctx, lockKey)

	return gw.Capture(ctx, transactionID)
}

func (s *Service) persistStatus(ctx context.Context, order *models.Order, next models.OrderStatus) error {
	if !order.Status.CanTransitionTo(next) {
		return NewValidation("Transition de statut interdite: %s vers %s", order.Status, next)
	}
	order.Status = next
	if err := s.store.Update(ctx, nil, order); err != nil {
		return err
	}
	s.cache.DelOrder(ctx, order.ID)
	s.cache.BumpListVersion(ctx)
	return nil
}
