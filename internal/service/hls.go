package service

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/sceneforged/sceneforged/internal/apperr"
	"github.com/sceneforged/sceneforged/internal/hls"
	"github.com/sceneforged/sceneforged/internal/store"
)

// HLSServer is the gorilla/mux-routed playback surface: master/variant
// playlists, the init segment, and fragment-by-index byte ranges, replaying
// a MediaFile's cached hls.SegmentMap straight onto the response body
// (spec §4.9.2). Kept on a distinct router from AdminServer because its
// URL shape (path segments carrying media file id and fragment index) is
// closer to gorilla/mux's pattern matching than chi's, and the pack
// demonstrates both — see DESIGN.md.
type HLSServer struct {
	store *store.Store
	log   zerolog.Logger
	mux   *mux.Router
}

func NewHLSServer(st *store.Store, log zerolog.Logger) *HLSServer {
	s := &HLSServer{store: st, log: log.With().Str("component", "service_hls").Logger()}
	s.routes()
	return s
}

func (s *HLSServer) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *HLSServer) routes() {
	r := mux.NewRouter()
	r.HandleFunc("/hls/{mediaId}/master.m3u8", s.handleMaster).Methods(http.MethodGet)
	r.HandleFunc("/hls/{mediaId}/variant.m3u8", s.handleVariant).Methods(http.MethodGet)
	r.HandleFunc("/hls/{mediaId}/init.mp4", s.handleInit).Methods(http.MethodGet)
	r.HandleFunc("/hls/{mediaId}/segment_{index}.m4s", s.handleSegment).Methods(http.MethodGet)
	s.mux = r
}

// loadSegmentMap resolves mediaId to its MediaFile, ensures serves_as_universal,
// and fetches+unmarshals the cached segment map (spec §4.9.2: "requires the
// MediaFile to already carry a role of universal and an hls_cache row").
func (s *HLSServer) loadSegmentMap(r *http.Request) (*hls.SegmentMap, error) {
	id, err := uuid.Parse(mux.Vars(r)["mediaId"])
	if err != nil {
		return nil, apperr.Validation("mediaId", "not a uuid")
	}
	mf, err := s.store.MediaFiles.GetByID(id)
	if err != nil {
		return nil, err
	}
	if !mf.ServesAsUniversal {
		return nil, apperr.Conflict("media file does not serve as universal")
	}
	cache, err := s.store.HLSCache.GetByMediaFile(mf.ID)
	if err != nil {
		return nil, err
	}
	return hls.UnmarshalSegmentMap(cache.SegmentMap)
}

func (s *HLSServer) handleMaster(w http.ResponseWriter, r *http.Request) {
	sm, err := s.loadSegmentMap(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	_, _ = w.Write([]byte(sm.MasterPlaylist()))
}

func (s *HLSServer) handleVariant(w http.ResponseWriter, r *http.Request) {
	sm, err := s.loadSegmentMap(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	_, _ = w.Write([]byte(sm.VariantPlaylist()))
}

func (s *HLSServer) handleInit(w http.ResponseWriter, r *http.Request) {
	sm, err := s.loadSegmentMap(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "video/mp4")
	_, _ = w.Write(sm.InitSegment)
}

func (s *HLSServer) handleSegment(w http.ResponseWriter, r *http.Request) {
	sm, err := s.loadSegmentMap(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, r, apperr.Validation("index", "not an integer"))
		return
	}
	w.Header().Set("Content-Type", "video/iso.segment")
	w.Header().Set("Content-Length", strconv.FormatInt(sm.ContentLength(index), 10))
	if err := sm.WriteSegment(w, index); err != nil {
		s.log.Warn().Err(err).Int("index", index).Msg("hls: segment write failed")
	}
}
