package voilibgov

import (
	"context"
	"encoding/json"
	"math/big"
	"sync"

	"github.com/asdine/storm"
	"github.com/facebookgo/clock"
	"golang.org/x/sync/errgroup"

	"github.com/voinetwork/voilibgov/namehash"
)

// DeriveElectionStatus combines the coarse on-chain status code with the
// election's time window. Code 1 means "scheduled": the window decides
// whether it is upcoming, running or over. Codes 0, 2 and 3 are absolute and
// ignore the clock. Codes above 3 are reserved.
func DeriveElectionStatus(rawStatus, startTimestamp, endTimestamp, now int64) ElectionStatus {
	switch rawStatus {
	case 0:
		return ElectionStatusUpcoming
	case 1:
		if now < startTimestamp {
			return ElectionStatusUpcoming
		}
		if now >= endTimestamp {
			return ElectionStatusCompleted
		}
		return ElectionStatusActive
	case 2:
		return ElectionStatusCompleted
	case 3:
		return ElectionStatusCancelled
	default:
		return ElectionStatusUnknown
	}
}

// ElectionRoster is the off-chain election configuration: which elections
// exist, their candidates, and how many council seats each fills. The
// contract knows nothing about candidates until they are endorsed; the
// roster is the client's source for names and display metadata.
type ElectionRoster struct {
	Elections []RosterElection `json:"elections"`
	Metadata  RosterMetadata   `json:"metadata"`
}

type RosterMetadata struct {
	Version            string `json:"version"`
	LastUpdated        string `json:"lastUpdated"`
	Description        string `json:"description"`
	Network            string `json:"network"`
	GovernanceContract string `json:"governanceContract"`
}

type RosterElection struct {
	ID           int               `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Status       string            `json:"status"`
	Positions    int               `json:"positions"`
	ProposalHash string            `json:"proposalHash"`
	Candidates   []RosterCandidate `json:"candidates"`
}

type RosterCandidate struct {
	ID                int    `json:"id"`
	Name              string `json:"name"`
	Bio               string `json:"bio"`
	Address           string `json:"address"`
	CampaignStatement string `json:"campaignStatement"`
}

// ElectionManager holds the client's view of the current election: the
// roster, the last fetched on-chain record, and per-candidate endorsement
// counts. On-chain records are cached in the database so a restart can
// render stale data while the first refresh is in flight.
type ElectionManager struct {
	gateway *ContractGateway
	db      *storm.DB
	clock   clock.Clock

	mu           sync.RWMutex
	roster       *ElectionRoster
	current      *Election
	currentNode  namehash.Node
	candidates   []*Candidate
	endorsements map[int]*big.Int
}

func NewElectionManager(gateway *ContractGateway, db *storm.DB, clk clock.Clock) *ElectionManager {
	return &ElectionManager{
		gateway:      gateway,
		db:           db,
		clock:        clk,
		endorsements: make(map[int]*big.Int),
	}
}

// LoadRoster parses the election configuration and selects the working
// election: the first one marked Active, else the first listed. Candidates
// are persisted so lookups by id survive a restart.
func (em *ElectionManager) LoadRoster(data []byte) error {
	var roster ElectionRoster
	if err := json.Unmarshal(data, &roster); err != nil {
		log.Errorf("election roster unreadable: %v", err)
		return notice(ErrDecode, "election configuration could not be parsed: %v", err)
	}
	if len(roster.Elections) == 0 {
		return notice(ErrNotExist, "election configuration lists no elections")
	}

	selected := roster.Elections[0]
	for _, e := range roster.Elections {
		if e.Status == "Active" {
			selected = e
			break
		}
	}

	node, err := namehash.NodeFromHex(selected.ProposalHash)
	if err != nil {
		return notice(ErrDecode, "election %q has a malformed node hash", selected.Title)
	}

	candidates := make([]*Candidate, 0, len(selected.Candidates))
	for _, rc := range selected.Candidates {
		candidate := &Candidate{
			ID:                rc.ID,
			ElectionNode:      node.String(),
			Name:              rc.Name,
			Bio:               rc.Bio,
			Address:           rc.Address,
			CampaignStatement: rc.CampaignStatement,
		}
		if err := em.db.Save(candidate); err != nil {
			log.Errorf("caching candidate %s failed: %v", rc.Name, err)
		}
		candidates = append(candidates, candidate)
	}

	em.mu.Lock()
	em.roster = &roster
	em.currentNode = node
	em.candidates = candidates
	em.current = &Election{
		Title:       selected.Title,
		Description: selected.Description,
		Node:        node.String(),
		Positions:   selected.Positions,
	}
	em.endorsements = make(map[int]*big.Int)
	em.mu.Unlock()

	log.Infof("election roster loaded: %q with %d candidates", selected.Title, len(candidates))
	return nil
}

// CurrentNode returns the node hash of the working election.
func (em *ElectionManager) CurrentNode() namehash.Node {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return em.currentNode
}

// Current returns the last known election record, nil before LoadRoster.
func (em *ElectionManager) Current() *Election {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return em.current
}

// Candidates returns the roster candidates in their configured order. The
// order is stable; it is the tie-break for the leaderboard.
func (em *ElectionManager) Candidates() []*Candidate {
	em.mu.RLock()
	defer em.mu.RUnlock()
	return em.candidates
}

// Quota is the number of candidates one voter may endorse, from the roster's
// seat count, falling back to the protocol maximum.
func (em *ElectionManager) Quota() int {
	em.mu.RLock()
	defer em.mu.RUnlock()
	if em.current != nil && em.current.Positions > 0 && em.current.Positions <= MaxVotes {
		return em.current.Positions
	}
	return MaxVotes
}

// Status derives the working election's status at the manager's clock.
func (em *ElectionManager) Status() ElectionStatus {
	em.mu.RLock()
	defer em.mu.RUnlock()
	if em.current == nil {
		return ElectionStatusUnknown
	}
	return DeriveElectionStatus(em.current.RawStatus, em.current.StartTimestamp,
		em.current.EndTimestamp, em.clock.Now().Unix())
}

// RefreshElection re-reads the working election from chain and updates the
// cached record. Roster-only fields carry over.
func (em *ElectionManager) RefreshElection(ctx context.Context) (*Election, error) {
	node := em.CurrentNode()
	if node == namehash.ZeroNode {
		return nil, notice(ErrNotExist, "no election configured")
	}

	election, err := em.gateway.ElectionRecord(ctx, node)
	if err != nil {
		return nil, err
	}
	if election == nil {
		return nil, notice(ErrNotExist, "election %s not found on chain", logNode(node))
	}

	em.mu.Lock()
	if em.current != nil {
		election.Positions = em.current.Positions
	}
	em.current = election
	em.mu.Unlock()

	if err := em.db.Save(election); err != nil {
		log.Errorf("caching election %s failed: %v", election.Node, err)
	}
	return election, nil
}

// CachedElection loads an election record from the database by node hash,
// for rendering before the first chain read completes.
func (em *ElectionManager) CachedElection(node string) (*Election, error) {
	var election Election
	err := em.db.One("Node", node, &election)
	if err != nil {
		if err == storm.ErrNotFound {
			return nil, nil
		}
		return nil, notice(ErrUnavailable, "election cache read failed: %v", err)
	}
	return &election, nil
}

// CandidateNode computes the on-chain identifier for a roster candidate.
func CandidateNode(c *Candidate) namehash.Node {
	return namehash.Hash(c.Name)
}

// FetchEndorsementCounts reads the per-candidate endorsement aggregates
// concurrently. A failed read for one candidate degrades to a zero count
// rather than failing the whole board; completion order is immaterial since
// results key by candidate id.
func (em *ElectionManager) FetchEndorsementCounts(ctx context.Context) (map[int]*big.Int, error) {
	node := em.CurrentNode()
	candidates := em.Candidates()

	counts := make(map[int]*big.Int, len(candidates))
	var countsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, candidate := range candidates {
		candidate := candidate
		g.Go(func() error {
			count, err := em.gateway.CandidateEndorsement(gctx, node, CandidateNode(candidate))
			if err != nil {
				if IsError(err, ErrContextCanceled) {
					return err
				}
				log.Errorf("endorsement count for %s unavailable: %v", candidate.Name, err)
				count = big.NewInt(0)
			}
			countsMu.Lock()
			counts[candidate.ID] = count
			countsMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	em.mu.Lock()
	em.endorsements = counts
	em.mu.Unlock()
	return counts, nil
}

// EndorsementCounts returns the last fetched counts, truncated to int64 for
// display.
func (em *ElectionManager) EndorsementCounts() map[int]int64 {
	em.mu.RLock()
	defer em.mu.RUnlock()
	counts := make(map[int]int64, len(em.endorsements))
	for id, count := range em.endorsements {
		counts[id] = count.Int64()
	}
	return counts
}

// HasEndorsed reports whether the address holds an endorsement record with a
// positive count in the working election.
func (em *ElectionManager) HasEndorsed(ctx context.Context, address string) (bool, error) {
	endorsement, err := em.gateway.EndorsementRecord(ctx, em.CurrentNode(), address)
	if err != nil {
		return false, err
	}
	return endorsement != nil && endorsement.Count != nil && endorsement.Count.Sign() > 0, nil
}
