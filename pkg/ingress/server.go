// Copyright 2025 Certen Protocol
//
// Ingress: the JSON-RPC 2.0 front door exposing twarb_sendProof and
// twarb_healthCheck, backed by go-ethereum's rpc package.

package ingress

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"

	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/twinexyz/twarb/pkg/relerr"
	"github.com/twinexyz/twarb/pkg/types"
)

// proofRequest is the wire envelope for twarb_sendProof, tagged by Type.
type proofRequest struct {
	Type       string          `json:"type"`
	Proof      json.RawMessage `json:"proof"`
	Identifier string          `json:"identifier"`
}

// Service implements the twarb_* JSON-RPC namespace. Exported method names
// are lower-cased by go-ethereum's rpc reflection, so SendProof/HealthCheck
// become twarb_sendProof/twarb_healthCheck once registered under "twarb".
type Service struct {
	validSenders map[string]struct{}
	out          chan<- types.ProofEnvelope
	logger       *log.Logger
}

// NewService builds the RPC service. validIdentifiers is the set of prover
// identifiers accepted for SP1 submissions.
func NewService(validIdentifiers []string, out chan<- types.ProofEnvelope) *Service {
	set := make(map[string]struct{}, len(validIdentifiers))
	for _, id := range validIdentifiers {
		set[id] = struct{}{}
	}
	return &Service{
		validSenders: set,
		out:          out,
		logger:       log.New(log.Writer(), "[Ingress] ", log.LstdFlags),
	}
}

// SendProof accepts a tagged proof envelope and enqueues it for the
// verifier. It returns once the envelope is queued, not once verified.
func (s *Service) SendProof(ctx context.Context, req proofRequest) (string, error) {
	envelope, err := s.decode(req)
	if err != nil {
		s.logger.Printf("failed deserializing proof: %v", err)
		return "", err
	}

	select {
	case s.out <- envelope:
		return "ok", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// HealthCheck echoes msg back with a fixed status prefix.
func (s *Service) HealthCheck(msg string) string {
	return fmt.Sprintf("Status: 1 Msg: %s", msg)
}

func (s *Service) decode(req proofRequest) (types.ProofEnvelope, error) {
	switch req.Type {
	case "RISC0Proof":
		s.logger.Println("RISC0 proof not supported at the moment")
		return types.ProofEnvelope{}, relerr.ErrNotSupported

	case "SP1Proof":
		if _, ok := s.validSenders[req.Identifier]; !ok {
			s.logger.Printf("invalid sender. identifier=%s", req.Identifier)
			return types.ProofEnvelope{}, relerr.ErrInvalidSender
		}
		var proof types.SP1ProofWithPublicValues
		if err := json.Unmarshal(req.Proof, &proof); err != nil {
			return types.ProofEnvelope{}, fmt.Errorf("%w: %v", relerr.ErrProofParsingFailed, err)
		}
		return types.ProofEnvelope{Kind: types.ProverSP1, Identifier: req.Identifier, SP1Proof: &proof}, nil

	case "Dummy":
		var proof []byte
		if err := json.Unmarshal(req.Proof, &proof); err != nil {
			return types.ProofEnvelope{}, fmt.Errorf("%w: %v", relerr.ErrProofParsingFailed, err)
		}
		return types.ProofEnvelope{Kind: types.ProverDummy, Identifier: req.Identifier, DummyProof: proof}, nil

	default:
		return types.ProofEnvelope{}, fmt.Errorf("%w: unknown proof type %q", relerr.ErrProofParsingFailed, req.Type)
	}
}

// Server wraps go-ethereum's rpc.Server with an HTTP listener bound to the
// configured port.
type Server struct {
	port    uint16
	rpc     *gethrpc.Server
	http    *http.Server
	logger  *log.Logger
}

// NewServer registers svc under the "twarb" namespace.
func NewServer(port uint16, svc *Service) (*Server, error) {
	rpcServer := gethrpc.NewServer()
	if err := rpcServer.RegisterName("twarb", svc); err != nil {
		return nil, fmt.Errorf("failed to register rpc service: %w", err)
	}

	return &Server{
		port:   port,
		rpc:    rpcServer,
		logger: log.New(log.Writer(), "[Ingress] ", log.LstdFlags),
	}, nil
}

// Run serves JSON-RPC over HTTP until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind ingress listener: %w", err)
	}

	s.http = &http.Server{Handler: s.rpc}
	s.logger.Printf("json rpc server running at %s", addr)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		s.rpc.Stop()
		return s.http.Close()
	case err := <-errCh:
		return err
	}
}
