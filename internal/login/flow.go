package login

import (
	"context"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"bancho/internal/channel"
	"bancho/internal/geoip"
	"bancho/internal/match"
	"bancho/internal/metrics"
	"bancho/internal/opcode"
	"bancho/internal/passwd"
	"bancho/internal/session"
	"bancho/internal/store"
	"bancho/internal/wire"
)

// RestrictionMessage and WelcomeMessage are sent via the bot account in
// the startup burst (spec §4.5), grounded verbatim on
// original_source/app/api.py's RESTRICTION_MESSAGE/WELCOME_MESSAGE role.
const (
	RestrictionMessage = "Your account is currently in restricted mode. Please check the website for more information!"
	WelcomeMessage     = "Welcome to the server! Please read the rules on the website."
)

// Deps wires the collaborators the login flow needs. Grounded on the
// teacher's callback-wiring style in main.go (room.SetOnX(...)): every
// external side-effect is an injected interface, not a hardcoded import.
type Deps struct {
	Users       *session.Registry
	Channels    *channel.Registry
	Matches     *match.Registry
	Store       store.UserStore
	Verifier    passwd.Verifier
	Geo         geoip.Reader
	MenuIconURL string
	MenuClick   string
	BotID       int32
	BotName     string
	Metrics     *metrics.Metrics
	Started     time.Time

	loginMu sync.Mutex
}

// NewDeps wires the login flow's collaborators and records the current time
// as Started, which feeds the uptime figure in the welcome notification.
func NewDeps(users *session.Registry, channels *channel.Registry, matches *match.Registry, st store.UserStore, verifier passwd.Verifier, geo geoip.Reader, botID int32, botName, menuIcon, menuClick string, m *metrics.Metrics) *Deps {
	return &Deps{
		Users: users, Channels: channels, Matches: matches, Store: st, Verifier: verifier, Geo: geo,
		BotID: botID, BotName: botName, MenuIconURL: menuIcon, MenuClick: menuClick,
		Metrics: m, Started: time.Now(),
	}
}

func (d *Deps) countLogin(outcome string) {
	if d.Metrics != nil {
		d.Metrics.LoginAttempts.WithLabelValues(outcome).Inc()
	}
}

// Result is the outcome of a login attempt: Body is the full response
// byte stream (always non-nil), Token is the new session token (empty on
// any rejection), OK reports whether a session was actually created.
type Result struct {
	Body  []byte
	Token string
	OK    bool
}

func reject(packets ...[]byte) Result {
	var body []byte
	for _, p := range packets {
		body = append(body, p...)
	}
	return Result{Body: body}
}

func (d *Deps) reject(outcome string, packets ...[]byte) Result {
	d.countLogin(outcome)
	return reject(packets...)
}

// Login runs the full flow described in spec §4.5 against body (the raw
// POST payload) and ip (for geolocation).
func (d *Deps) Login(ctx context.Context, body []byte, ip string) Result {
	creds, err := ParseCredentials(body)
	if err != nil {
		log.Printf("[login] malformed body: %v", err)
		return d.reject("malformed_body", UserID(-1))
	}

	version, err := ParseVersion(creds.OsuVersion)
	if err != nil {
		log.Printf("[login] %s: version rejected: %v", creds.Username, err)
		return d.reject("version_rejected", VersionUpdateForced(), UserID(-2))
	}

	hashes, err := ParseAdapters(creds.ClientHashes)
	if err != nil {
		log.Printf("[login] %s: adapters rejected: %v", creds.Username, err)
		return d.reject("bad_adapters", UserID(-5))
	}

	safeName := SafeName(creds.Username)
	rec, found, err := d.Store.FindUserByName(ctx, safeName)
	if err != nil {
		log.Printf("[login] store error: %v", err)
		return d.reject("store_error", UserID(-1))
	}
	if !found {
		return d.reject("unknown_user", UserID(-1))
	}
	// The password check, the duplicate-session check and the registry
	// insertion must be serialized as one atomic step (spec §4.5): a
	// dedicated mutex plays the role the spec assigns to "an exclusive lock
	// over the user registry", without requiring session.Registry itself to
	// expose a coarse lock to unrelated callers.
	d.loginMu.Lock()
	defer d.loginMu.Unlock()

	if !d.Verifier.Verify(rec.BcryptHash, creds.PasswordMD5) {
		return d.reject("bad_password", UserID(-1))
	}

	isTourney := version.Stream == "tourney"

	if existing, ok := d.Users.ByName(creds.Username); ok {
		if !isTourney && !existing.Tourney() {
			if existing.IdleFor() > 10*time.Second {
				Logout(d.Users, d.Channels, d.Matches, existing)
			} else {
				return d.reject("already_logged_in", Notification("You are already logged in!"))
			}
		}
	}

	var geo geoip.City
	if d.Geo != nil {
		if ip := net.ParseIP(ip); ip != nil {
			geo, _ = d.Geo.City(ip)
		}
	}

	hashRec := store.ClientHashesRecord{
		UserID:      rec.ID,
		AdaptersMD5: hashes.AdaptersMD5, UninstallMD5: hashes.UninstallMD5,
		DiskMD5: hashes.DiskMD5, Wine: hashes.Wine, SeenAt: time.Now(),
	}
	if colliders, err := d.Store.FindCollidingHashes(ctx, hashRec); err == nil && len(colliders) > 0 {
		log.Printf("[login] %s: hardware collision with %v", creds.Username, colliders)
		return d.reject("hardware_collision", Notification("Multiple clients detected. Please close any other running osu! clients."))
	}

	u := session.NewUser(rec.ID, creds.Username, safeName)
	u.PassHash = rec.BcryptHash
	u.IP = ip
	u.Privileges = session.Privileges(rec.Privileges)
	u.CountryISO = geo.ISOCode
	u.Longitude = geo.Longitude
	u.Latitude = geo.Latitude
	u.UTCOffset = creds.UTCOffset
	u.SetFriendOnlyDMs(creds.PMPrivate)
	u.SetTourney(isTourney)
	u.Version = version
	u.SilenceEnd = rec.SilenceEnd
	u.Fingerprint = session.ClientFingerprint{
		OsuMD5: hashes.OsuPathMD5, AdaptersMD5: hashes.AdaptersMD5,
		UninstallMD5: hashes.UninstallMD5, DiskMD5: hashes.DiskMD5,
		Adapters: hashes.Adapters, Wine: hashes.Wine,
	}
	if err := d.Store.SaveClientHashes(ctx, hashRec); err != nil {
		log.Printf("[login] save client hashes: %v", err)
	}

	if friends, blocked, err := d.Store.FindRelationships(ctx, u.ID); err != nil {
		log.Printf("[login] load relationships: %v", err)
	} else {
		for _, id := range friends {
			u.AddFriend(id)
		}
		for _, id := range blocked {
			u.Block(id)
		}
	}

	for mode := session.ModeOsu; mode <= session.ModeMania; mode++ {
		srec, err := d.Store.FindStats(ctx, u.ID, int32(mode))
		if err != nil {
			log.Printf("[login] load stats mode %d: %v", mode, err)
			continue
		}
		u.SetStats(mode, session.Stats{
			TotalScore: srec.TotalScore, RankedScore: srec.RankedScore,
			Accuracy: srec.Accuracy, PP: srec.PP, MaxCombo: srec.MaxCombo,
			TotalHits: srec.TotalHits, Playcount: srec.Playcount,
			Playtime: srec.Playtime, GlobalRank: srec.GlobalRank,
			CountryRank: srec.CountryRank,
		})
	}

	u.Token = uuid.NewString()

	bancho := u.Privileges.ToBancho()
	countryID := geoip.CountryIndex(u.CountryISO)

	var body2 []byte
	body2 = append(body2, ProtocolVersion()...)
	body2 = append(body2, UserID(u.ID)...)
	// The self-targeted privileges packet alone gets an unconditional
	// supporter boost, grounded on api.py's login handler
	// (bancho_privileges(user.bancho_privileges | BanchoPrivileges.SUPPORTER));
	// every other presence/stats packet below uses the plain projection.
	body2 = append(body2, BanchoPrivileges(bancho|session.BanchoSupporter)...)

	for _, c := range d.Channels.Public() {
		if c.RealName == "#lobby" || !c.AutoJoin || !c.HasPermission(u.Privileges) {
			continue
		}
		c.Join(u)
		infoPacket := ChannelInfoPacket(c.Info())
		body2 = append(body2, infoPacket...)
		for _, other := range d.Users.All() {
			if other.ID != u.ID && c.HasPermission(other.Privileges) {
				other.Enqueue(infoPacket)
			}
		}
	}
	body2 = append(body2, ChannelInfoEnd()...)
	body2 = append(body2, MenuIcon(d.MenuIconURL, d.MenuClick)...)
	body2 = append(body2, FriendsList(u.Friends())...)
	body2 = append(body2, SilenceEnd(int32(u.RemainingSilence().Seconds()))...)
	body2 = append(body2, Presence(u, countryID, bancho)...)
	body2 = append(body2, Stats(u)...)

	for _, t := range d.Users.Unrestricted() {
		if t.ID == u.ID {
			continue
		}
		body2 = append(body2, Presence(t, geoip.CountryIndex(t.CountryISO), t.Privileges.ToBancho())...)
		body2 = append(body2, Stats(t)...)
	}

	if u.Restricted() {
		body2 = append(body2, UserRestricted()...)
		body2 = append(body2, SendMessage(wire.Message{
			Sender: d.BotName, Content: RestrictionMessage, Recipient: u.Name, SenderID: d.BotID,
		})...)
	}

	if !u.Privileges.Has(session.PrivilegeVerified) {
		u.Privileges |= session.PrivilegeVerified
		if u.ID == 3 {
			u.Privileges |= session.PrivilegeOwner | session.PrivilegeDeveloper | session.PrivilegeAdmin
		}
		if err := d.Store.SetPrivileges(ctx, u.ID, uint32(u.Privileges)); err != nil {
			log.Printf("[login] persist privileges: %v", err)
		}
		body2 = append(body2, SendMessage(wire.Message{
			Sender: d.BotName, Content: WelcomeMessage, Recipient: u.Name, SenderID: d.BotID,
		})...)
	}

	body2 = append(body2, Notification(fmt.Sprintf(
		"Welcome back to the server!\n\nOnline users: %d, Time elapsed: %s",
		d.Users.Count()+1, time.Since(d.Started).Round(time.Second),
	))...)

	d.Users.Insert(u)

	if !u.Restricted() {
		presence, stats := Presence(u, countryID, bancho), Stats(u)
		for _, other := range d.Users.All() {
			if other.ID == u.ID {
				continue
			}
			other.Enqueue(presence)
			other.Enqueue(stats)
		}
	}

	if err := d.Store.InsertLogin(ctx, u.ID, ip, true); err != nil {
		log.Printf("[login] insert login record: %v", err)
	}

	d.countLogin("ok")
	return Result{Body: body2, Token: u.Token, OK: true}
}

// ChannelInfoPacket encodes a channel_info frame; shared with the channel
// join/part handlers so membership-count updates use the same builder the
// login burst does.
func ChannelInfoPacket(info wire.ChannelInfo) []byte {
	w := wire.NewWriter(32 + len(info.Name) + len(info.Topic))
	wire.EncodeChannelInfo(w, info)
	return wire.BuildPacket(opcode.ChoChannelInfo, w.Bytes())
}
