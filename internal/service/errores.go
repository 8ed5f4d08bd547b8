package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

// Error kinds returned by the services. Handlers map them to HTTP status with
// errors.Is; typed errors below match their sentinel so callers can also
// extract the conflicting entity with errors.As.
var (
	ErrNombreInvalido     = errors.New("el nombre no puede estar vacío")
	ErrPrecioInvalido     = errors.New("el precio debe ser un número mayor o igual a cero")
	ErrCantidadInvalida   = errors.New("la cantidad debe ser un número entero mayor o igual a 1")
	ErrMiembroDuplicado   = errors.New("el producto ya existe en el kit")
	ErrNombreDuplicado    = errors.New("ya existe un kit con ese nombre")
	ErrReferenciaColgante = errors.New("el kit referencia productos inexistentes")
	ErrNoEncontrado       = errors.New("registro no encontrado")
	ErrPersistencia       = errors.New("error de persistencia")

	ErrProductoEsKit     = errors.New("un kit no puede contener otro kit")
	ErrNoEsKit           = errors.New("el producto no es un kit")
	ErrEsKit             = errors.New("el producto es un kit; use las operaciones de kit")
	ErrProductoEnUso     = errors.New("el producto forma parte de uno o más kits")
	ErrStockInsuficiente = errors.New("stock insuficiente")
	ErrOperacionEnCurso  = errors.New("ya hay una operación en curso para este kit")
)

// MiembroDuplicadoError names the product that is already a member.
type MiembroDuplicadoError struct {
	ProductoID uuid.UUID
	Nombre     string
}

func (e *MiembroDuplicadoError) Error() string {
	if e.Nombre != "" {
		return fmt.Sprintf("el producto %q ya existe en el kit; edite su cantidad", e.Nombre)
	}
	return fmt.Sprintf("el producto %s ya existe en el kit; edite su cantidad", e.ProductoID)
}

func (e *MiembroDuplicadoError) Is(target error) bool { return target == ErrMiembroDuplicado }

// NombreDuplicadoError names the kit that already uses the name.
type NombreDuplicadoError struct {
	Nombre string
	KitID  uuid.UUID
}

func (e *NombreDuplicadoError) Error() string {
	return fmt.Sprintf("ya existe un kit llamado %q", e.Nombre)
}

func (e *NombreDuplicadoError) Is(target error) bool { return target == ErrNombreDuplicado }

// ReferenciaColganteError lists the member products that could not be resolved.
type ReferenciaColganteError struct {
	ProductoIDs []uuid.UUID
}

func (e *ReferenciaColganteError) Error() string {
	ids := make([]string, 0, len(e.ProductoIDs))
	for _, id := range e.ProductoIDs {
		ids = append(ids, id.String())
	}
	return "el kit referencia productos inexistentes: " + strings.Join(ids, ", ")
}

func (e *ReferenciaColganteError) Is(target error) bool { return target == ErrReferenciaColgante }

// PersistenciaError wraps a failure surfaced by the store.
type PersistenciaError struct {
	Op  string
	Err error
}

func (e *PersistenciaError) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *PersistenciaError) Unwrap() error { return e.Err }

func (e *PersistenciaError) Is(target error) bool { return target == ErrPersistencia }

// traducir maps a store error onto the taxonomy. Not-found becomes
// ErrNoEncontrado; anything else becomes a PersistenciaError with a stack.
func traducir(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNoEncontrado
	}
	return &PersistenciaError{Op: op, Err: pkgerrors.WithStack(err)}
}
