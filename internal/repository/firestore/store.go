// Package firestore implements repository.Store on Cloud Firestore, keeping the
// collection layout condominiums/{id}/units/{id}/account_history/{id}.
package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Dan9191/condo-service/internal/models"
	"github.com/Dan9191/condo-service/internal/repository"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Store wraps a Firestore client
type Store struct {
	client *firestore.Client
	now    func() time.Time

	suppliers      *recordRepo[models.Supplier]
	employees      *recordRepo[models.Employee]
	incidents      *recordRepo[models.Incident]
	communications *recordRepo[models.Communication]
}

// Open creates a client for projectID. credentialsFile may be empty to use
// Application Default Credentials or the emulator.
func Open(ctx context.Context, projectID, credentialsFile string) (*Store, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	return New(client), nil
}

func New(client *firestore.Client) *Store {
	s := &Store{client: client, now: func() time.Time { return time.Now().UTC() }}
	s.suppliers = newRecordRepo[models.Supplier](s, repository.CollectionSuppliers)
	s.employees = newRecordRepo[models.Employee](s, repository.CollectionEmployees)
	s.incidents = newRecordRepo[models.Incident](s, repository.CollectionIncidents)
	s.communications = newRecordRepo[models.Communication](s, repository.CollectionCommunications)
	return s
}

func (s *Store) Condominiums() repository.CondominiumRepository { return condoRepo{s} }
func (s *Store) Units() repository.UnitRepository               { return unitRepo{s} }
func (s *Store) Invoices() repository.InvoiceRepository         { return invoiceRepo{s} }
func (s *Store) Transactions() repository.TransactionRepository { return txnRepo{s} }

func (s *Store) Suppliers() repository.RecordRepository[models.Supplier] { return s.suppliers }
func (s *Store) Employees() repository.RecordRepository[models.Employee] { return s.employees }
func (s *Store) Incidents() repository.RecordRepository[models.Incident] { return s.incidents }
func (s *Store) Communications() repository.RecordRepository[models.Communication] {
	return s.communications
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) condo(id string) *firestore.DocumentRef {
	return s.client.Collection(repository.CollectionCondominiums).Doc(id)
}

func (s *Store) sub(condoID, collection string) *firestore.CollectionRef {
	return s.condo(condoID).Collection(collection)
}

func isNotFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// requireCondo fails with ErrNotFound when the condominium document is missing
func (s *Store) requireCondo(ctx context.Context, condoID string) error {
	_, err := s.condo(condoID).Get(ctx)
	if isNotFound(err) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get condominium: %w", err)
	}
	return nil
}

type condoRepo struct{ s *Store }

func (r condoRepo) Create(ctx context.Context, c *models.Condominium) error {
	now := r.s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	if _, err := r.s.condo(c.ID).Create(ctx, newCondoDoc(c)); err != nil {
		return fmt.Errorf("failed to create condominium: %w", err)
	}
	return nil
}

func (r condoRepo) Get(ctx context.Context, id string) (*models.Condominium, error) {
	snap, err := r.s.condo(id).Get(ctx)
	if isNotFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get condominium: %w", err)
	}
	var d condoDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode condominium: %w", err)
	}
	return d.model(snap.Ref.ID), nil
}

func (r condoRepo) List(ctx context.Context) ([]*models.Condominium, error) {
	snaps, err := r.s.client.Collection(repository.CollectionCondominiums).
		OrderBy("name", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list condominiums: %w", err)
	}
	out := make([]*models.Condominium, 0, len(snaps))
	for _, snap := range snaps {
		var d condoDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to decode condominium: %w", err)
		}
		out = append(out, d.model(snap.Ref.ID))
	}
	return out, nil
}

func (r condoRepo) Update(ctx context.Context, c *models.Condominium) error {
	return r.s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.s.condo(c.ID)
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get condominium: %w", err)
		}
		var prev condoDoc
		if err := snap.DataTo(&prev); err != nil {
			return fmt.Errorf("failed to decode condominium: %w", err)
		}
		c.CreatedAt = prev.CreatedAt
		c.UpdatedAt = r.s.now()
		return tx.Set(ref, newCondoDoc(c))
	})
}

type unitRepo struct{ s *Store }

func (r unitRepo) ref(condoID, unitID string) *firestore.DocumentRef {
	return r.s.sub(condoID, repository.CollectionUnits).Doc(unitID)
}

func (r unitRepo) Create(ctx context.Context, u *models.Unit) error {
	if err := r.s.requireCondo(ctx, u.CondominiumID); err != nil {
		return err
	}
	now := r.s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	if _, err := r.ref(u.CondominiumID, u.ID).Create(ctx, newUnitDoc(u)); err != nil {
		return fmt.Errorf("failed to create unit: %w", err)
	}
	return nil
}

func (r unitRepo) Get(ctx context.Context, condoID, unitID string) (*models.Unit, error) {
	snap, err := r.ref(condoID, unitID).Get(ctx)
	if isNotFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	var d unitDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode unit: %w", err)
	}
	return d.model(condoID, snap.Ref.ID), nil
}

func (r unitRepo) List(ctx context.Context, condoID string) ([]*models.Unit, error) {
	snaps, err := r.s.sub(condoID, repository.CollectionUnits).
		OrderBy("unitNumber", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list units: %w", err)
	}
	out := make([]*models.Unit, 0, len(snaps))
	for _, snap := range snaps {
		var d unitDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to decode unit: %w", err)
		}
		out = append(out, d.model(condoID, snap.Ref.ID))
	}
	return out, nil
}

func (r unitRepo) Update(ctx context.Context, u *models.Unit) error {
	return r.s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.ref(u.CondominiumID, u.ID)
		snap, err := tx.Get(ref)
		if isNotFound(err) {
			return repository.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to get unit: %w", err)
		}
		var prev unitDoc
		if err := snap.DataTo(&prev); err != nil {
			return fmt.Errorf("failed to decode unit: %w", err)
		}
		u.CreatedAt = prev.CreatedAt
		u.UpdatedAt = r.s.now()
		return tx.Set(ref, newUnitDoc(u))
	})
}

// Delete removes the unit document and its history subcollections. Firestore
// does not cascade, so the subcollection documents are deleted explicitly.
func (r unitRepo) Delete(ctx context.Context, condoID, unitID string) error {
	ref := r.ref(condoID, unitID)
	if _, err := ref.Get(ctx); isNotFound(err) {
		return repository.ErrNotFound
	} else if err != nil {
		return fmt.Errorf("failed to get unit: %w", err)
	}

	bw := r.s.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for _, name := range []string{repository.CollectionAccountHistory, repository.CollectionManagement} {
		iter := ref.Collection(name).Documents(ctx)
		for {
			snap, err := iter.Next()
			if errors.Is(err, iterator.Done) {
				break
			}
			if err != nil {
				iter.Stop()
				bw.End()
				return fmt.Errorf("failed to list %s: %w", name, err)
			}
			job, err := bw.Delete(snap.Ref)
			if err != nil {
				iter.Stop()
				bw.End()
				return fmt.Errorf("failed to delete %s entry: %w", name, err)
			}
			jobs = append(jobs, job)
		}
	}
	unitJob, err := bw.Delete(ref)
	if err != nil {
		bw.End()
		return fmt.Errorf("failed to delete unit: %w", err)
	}
	jobs = append(jobs, unitJob)
	bw.End()
	return bulkErr(jobs)
}

// bulkErr returns the first failure among finished BulkWriter jobs
func bulkErr(jobs []*firestore.BulkWriterJob) error {
	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("failed to delete document: %w", err)
		}
	}
	return nil
}

// AppendMovement writes the movement inside a transaction that also reads the
// unit. Fees use the period as document id, so a second fee for the same
// period hits AlreadyExists.
func (r unitRepo) AppendMovement(ctx context.Context, condoID, unitID string, m *models.AccountMovement) error {
	unitRef := r.ref(condoID, unitID)
	history := unitRef.Collection(repository.CollectionAccountHistory)
	movRef := history.Doc(m.ID)
	if m.Period != nil {
		movRef = history.Doc(feeDocID(*m.Period))
	}

	err := r.s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(unitRef); isNotFound(err) {
			return repository.ErrNotFound
		} else if err != nil {
			return fmt.Errorf("failed to get unit: %w", err)
		}
		if m.Period != nil {
			if _, err := tx.Get(movRef); err == nil {
				return repository.ErrFeeAlreadyRegistered
			} else if !isNotFound(err) {
				return fmt.Errorf("failed to check fee: %w", err)
			}
		}
		return tx.Create(movRef, newMovementDoc(m, r.s.now()))
	})
	if status.Code(err) == codes.AlreadyExists {
		return repository.ErrFeeAlreadyRegistered
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) && !errors.Is(err, repository.ErrFeeAlreadyRegistered) {
		return fmt.Errorf("failed to append movement: %w", err)
	}
	if err == nil && m.Period != nil {
		m.ID = movRef.ID
	}
	return err
}

func (r unitRepo) ListMovements(ctx context.Context, condoID, unitID string) ([]models.AccountMovement, error) {
	ref := r.ref(condoID, unitID)
	if _, err := ref.Get(ctx); isNotFound(err) {
		return nil, repository.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	snaps, err := ref.Collection(repository.CollectionAccountHistory).
		OrderBy("createdAt", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	out := make([]models.AccountMovement, 0, len(snaps))
	for _, snap := range snaps {
		var d movementDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to decode movement: %w", err)
		}
		m, err := d.model(snap.Ref.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

func (r unitRepo) AddComment(ctx context.Context, condoID, unitID string, c *models.ManagementComment) error {
	ref := r.ref(condoID, unitID)
	return r.s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		if _, err := tx.Get(ref); isNotFound(err) {
			return repository.ErrNotFound
		} else if err != nil {
			return fmt.Errorf("failed to get unit: %w", err)
		}
		return tx.Create(ref.Collection(repository.CollectionManagement).Doc(c.ID),
			commentDoc{Date: c.Date, Comment: c.Comment, User: c.User})
	})
}

func (r unitRepo) ListComments(ctx context.Context, condoID, unitID string) ([]models.ManagementComment, error) {
	ref := r.ref(condoID, unitID)
	if _, err := ref.Get(ctx); isNotFound(err) {
		return nil, repository.ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to get unit: %w", err)
	}
	snaps, err := ref.Collection(repository.CollectionManagement).
		OrderBy("date", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	out := make([]models.ManagementComment, 0, len(snaps))
	for _, snap := range snaps {
		var d commentDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to decode comment: %w", err)
		}
		out = append(out, models.ManagementComment{ID: snap.Ref.ID, Date: d.Date, Comment: d.Comment, User: d.User})
	}
	return out, nil
}

type invoiceRepo struct{ s *Store }

func (r invoiceRepo) ref(condoID, id string) *firestore.DocumentRef {
	return r.s.sub(condoID, repository.CollectionInvoices).Doc(id)
}

func (r invoiceRepo) Create(ctx context.Context, inv *models.Invoice) error {
	if err := r.s.requireCondo(ctx, inv.CondominiumID); err != nil {
		return err
	}
	now := r.s.now()
	inv.CreatedAt, inv.UpdatedAt = now, now
	if _, err := r.ref(inv.CondominiumID, inv.ID).Create(ctx, newInvoiceDoc(inv)); err != nil {
		return fmt.Errorf("failed to create invoice: %w", err)
	}
	return nil
}

func (r invoiceRepo) Get(ctx context.Context, condoID, invoiceID string) (*models.Invoice, error) {
	snap, err := r.ref(condoID, invoiceID).Get(ctx)
	if isNotFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}
	var d invoiceDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode invoice: %w", err)
	}
	return d.model(condoID, snap.Ref.ID), nil
}

func (r invoiceRepo) List(ctx context.Context, condoID string) ([]*models.Invoice, error) {
	snaps, err := r.s.sub(condoID, repository.CollectionInvoices).
		OrderBy("date", firestore.Desc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	out := make([]*models.Invoice, 0, len(snaps))
	for _, snap := range snaps {
		var d invoiceDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to decode invoice: %w", err)
		}
		out = append(out, d.model(condoID, snap.Ref.ID))
	}
	return out, nil
}

func (r invoiceRepo) Update(ctx context.Context, inv *models.Invoice) error {
	return r.s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		ref := r.ref(inv.CondominiumID, inv.ID)
		prev, err := getInvoice(tx, ref)
		if err != nil {
			return err
		}
		if prev.Status == string(models.InvoicePaid) {
			return repository.ErrInvoiceAlreadyPaid
		}
		inv.CreatedAt = prev.CreatedAt
		inv.UpdatedAt = r.s.now()
		return tx.Set(ref, newInvoiceDoc(inv))
	})
}

// Delete removes an unpaid invoice. A paid one keeps its expense reference.
func (r invoiceRepo) Delete(ctx context.Context, condoID, invoiceID string) error {
	ref := r.ref(condoID, invoiceID)
	return r.s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		d, err := getInvoice(tx, ref)
		if err != nil {
			return err
		}
		if d.Status == string(models.InvoicePaid) {
			return repository.ErrInvoiceAlreadyPaid
		}
		return tx.Delete(ref)
	})
}

// Pay runs the status check and both writes in one Firestore transaction.
// Contending payers are retried by the client and the loser observes Pagada.
func (r invoiceRepo) Pay(ctx context.Context, condoID, invoiceID string, txn *models.Transaction) (*models.Invoice, error) {
	ref := r.ref(condoID, invoiceID)
	var paid *models.Invoice
	err := r.s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		d, err := getInvoice(tx, ref)
		if err != nil {
			return err
		}
		if d.Status == string(models.InvoicePaid) {
			return repository.ErrInvoiceAlreadyPaid
		}
		now := r.s.now()
		txn.CreatedAt = now
		if err := tx.Create(r.s.sub(condoID, repository.CollectionTransactions).Doc(txn.ID), newTxnDoc(txn)); err != nil {
			return err
		}
		d.Status = string(models.InvoicePaid)
		d.RelatedTransactionID = txn.ID
		d.UpdatedAt = now
		paid = d.model(condoID, invoiceID)
		return tx.Update(ref, []firestore.Update{
			{Path: "status", Value: d.Status},
			{Path: "relatedTransactionId", Value: txn.ID},
			{Path: "updatedAt", Value: now},
		})
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

func (r invoiceRepo) MarkOverdue(ctx context.Context, condoID string, asOf time.Time) (int, error) {
	q := r.s.sub(condoID, repository.CollectionInvoices).
		Where("status", "==", string(models.InvoicePending)).
		Where("dueDate", "<", asOf)
	n := 0
	err := r.s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		n = 0
		snaps, err := tx.Documents(q).GetAll()
		if err != nil {
			return fmt.Errorf("failed to query pending invoices: %w", err)
		}
		now := r.s.now()
		for _, snap := range snaps {
			if err := tx.Update(snap.Ref, []firestore.Update{
				{Path: "status", Value: string(models.InvoiceOverdue)},
				{Path: "updatedAt", Value: now},
			}); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func getInvoice(tx *firestore.Transaction, ref *firestore.DocumentRef) (invoiceDoc, error) {
	var d invoiceDoc
	snap, err := tx.Get(ref)
	if isNotFound(err) {
		return d, repository.ErrNotFound
	}
	if err != nil {
		return d, fmt.Errorf("failed to get invoice: %w", err)
	}
	if err := snap.DataTo(&d); err != nil {
		return d, fmt.Errorf("failed to decode invoice: %w", err)
	}
	return d, nil
}

type txnRepo struct{ s *Store }

func (r txnRepo) Create(ctx context.Context, t *models.Transaction) error {
	if err := r.s.requireCondo(ctx, t.CondominiumID); err != nil {
		return err
	}
	t.CreatedAt = r.s.now()
	if _, err := r.s.sub(t.CondominiumID, repository.CollectionTransactions).Doc(t.ID).Create(ctx, newTxnDoc(t)); err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r txnRepo) Get(ctx context.Context, condoID, id string) (*models.Transaction, error) {
	snap, err := r.s.sub(condoID, repository.CollectionTransactions).Doc(id).Get(ctx)
	if isNotFound(err) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	var d txnDoc
	if err := snap.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode transaction: %w", err)
	}
	t := d.model(condoID, snap.Ref.ID)
	return &t, nil
}

func (r txnRepo) List(ctx context.Context, condoID string) ([]models.Transaction, error) {
	snaps, err := r.s.sub(condoID, repository.CollectionTransactions).
		OrderBy("date", firestore.Asc).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	out := make([]models.Transaction, 0, len(snaps))
	for _, snap := range snaps {
		var d txnDoc
		if err := snap.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to decode transaction: %w", err)
		}
		out = append(out, d.model(condoID, snap.Ref.ID))
	}
	return out, nil
}
