package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/odonto/odonto/internal/platform/apperr"
	"github.com/odonto/odonto/internal/platform/blobstore"
	"github.com/odonto/odonto/internal/platform/db"
	"github.com/odonto/odonto/internal/platform/tenant"
)

const maxNameLen = 255

type Service struct {
	repo     Repository
	patients tenant.PatientOwner
	store    blobstore.Store
	tx       db.TxRunner
	logger   zerolog.Logger
}

func NewService(repo Repository, patients tenant.PatientOwner, store blobstore.Store, tx db.TxRunner, logger zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, store: store, tx: tx, logger: logger}
}

// Upload stores the file and its metadata row in one transaction. When the
// upload fails the row is rolled back; when the row fails the blob is removed.
func (s *Service) Upload(ctx context.Context, empresaID tenant.ID, in UploadInput) (*Attachment, error) {
	if err := tenant.EnsurePatient(ctx, s.patients, in.PacienteID, empresaID); err != nil {
		return nil, err
	}
	nome := path.Base(strings.ReplaceAll(strings.TrimSpace(in.Nome), "\\", "/"))
	if nome == "" || nome == "." || nome == "/" {
		return nil, apperr.Validation("%s", blobstore.ErrMissingFileName.Error())
	}
	if len(nome) > maxNameLen {
		return nil, apperr.Validation("file name exceeds %d characters", maxNameLen)
	}
	if err := blobstore.CheckContentType(in.Tipo); err != nil {
		return nil, apperr.Validation("content type %q is not allowed", in.Tipo)
	}

	a := &Attachment{
		ID:         uuid.New(),
		EmpresaID:  empresaID,
		PacienteID: in.PacienteID,
		Nome:       nome,
		Tipo:       in.Tipo,
		Descricao:  in.Descricao,
	}
	a.Chave = objectKey(empresaID, a.PacienteID, a.ID, nome)

	var stored bool
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		obj, err := s.store.Put(ctx, a.Chave, a.Tipo, in.Body)
		if err != nil {
			return err
		}
		stored = true
		a.Tamanho = obj.Size
		a.SHA256 = obj.SHA256
		a.URL = obj.URL
		return s.repo.Create(ctx, a)
	})
	if err != nil {
		if stored {
			if derr := s.store.Delete(context.WithoutCancel(ctx), a.Chave); derr != nil {
				s.logger.Warn().Err(derr).Str("key", a.Chave).Msg("failed to remove orphaned blob")
			}
		}
		return nil, err
	}
	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Attachment, error) {
	return s.repo.GetByID(ctx, id, empresaID)
}

// Open returns the stored content of an attachment. The caller closes it.
func (s *Service) Open(ctx context.Context, id uuid.UUID, empresaID tenant.ID) (*Attachment, io.ReadCloser, error) {
	a, err := s.repo.GetByID(ctx, id, empresaID)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.store.Open(ctx, a.Chave)
	if errors.Is(err, blobstore.ErrBlobNotFound) {
		return nil, nil, apperr.NotFound("attachment content")
	}
	if err != nil {
		return nil, nil, err
	}
	return a, rc, nil
}

func (s *Service) List(ctx context.Context, empresaID tenant.ID, filters map[string]string, limit, offset int) ([]*Attachment, int, error) {
	return s.repo.List(ctx, empresaID, filters, limit, offset)
}

// Delete removes the row and then the blob. A blob that is already gone is
// not an error.
// Delete removes the row and, once that has committed, the blob. A blob
// that cannot be removed is logged and left behind.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, empresaID tenant.ID) error {
	var a *Attachment
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		if a, err = s.repo.GetByID(ctx, id, empresaID); err != nil {
			return err
		}
		return s.repo.Delete(ctx, id, empresaID)
	})
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, a.Chave); err != nil && !errors.Is(err, blobstore.ErrBlobNotFound) {
		s.logger.Warn().Err(err).
			Str("attachment_id", a.ID.String()).
			Str("key", a.Chave).
			Msg("delete attachment blob")
	}
	return nil
}

func objectKey(empresaID tenant.ID, pacienteID, id uuid.UUID, nome string) string {
	return fmt.Sprintf("%s/%s/%s%s", empresaID, pacienteID, id, strings.ToLower(path.Ext(nome)))
}
