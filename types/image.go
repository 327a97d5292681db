package types

// ArtStyle selects the artistic rendering of a generated image.
// Values are the display labels sent to the model.
type ArtStyle string

const (
	StyleNone        ArtStyle = "No Style"
	StylePal         ArtStyle = "Pal"
	StyleRealistic   ArtStyle = "Photorealistic"
	StyleAnime       ArtStyle = "Anime/Manga"
	StyleGhibli      ArtStyle = "Studio Ghibli"
	StylePixelArt    ArtStyle = "Pixel Art"
	StyleCyberpunk   ArtStyle = "Cyberpunk"
	StyleSwimwear    ArtStyle = "Swimwear / Bikini"
	StyleFrenchKiss  ArtStyle = "Romantic / French Kiss"
	StyleWatercolor  ArtStyle = "Watercolor"
	StyleOilPainting ArtStyle = "Oil Painting"
	Style3DRender    ArtStyle = "3D Render"
	StyleVintage     ArtStyle = "Vintage Photograph"
	StyleSketch      ArtStyle = "Pencil Sketch"
	StylePopArt      ArtStyle = "Pop Art"
	StyleUkiyoe      ArtStyle = "Ukiyo-e"
	StyleSteampunk   ArtStyle = "Steampunk"
	StyleLowPoly     ArtStyle = "Low Poly"
	StyleIsometric   ArtStyle = "Isometric"
	StyleClaymation  ArtStyle = "Claymation"
	StyleOrigami     ArtStyle = "Origami"
	StyleNeonNoir    ArtStyle = "Neon Noir"
	StyleAbstract    ArtStyle = "Abstract Expressionism"
)

// ArtStyles lists every style in presentation order.
var ArtStyles = []ArtStyle{
	StyleNone, StylePal, StyleRealistic, StyleAnime, StyleGhibli, StylePixelArt,
	StyleCyberpunk, StyleSwimwear, StyleFrenchKiss, StyleWatercolor, StyleOilPainting,
	Style3DRender, StyleVintage, StyleSketch, StylePopArt, StyleUkiyoe, StyleSteampunk,
	StyleLowPoly, StyleIsometric, StyleClaymation, StyleOrigami, StyleNeonNoir, StyleAbstract,
}

// PoseStyle selects the subject's pose.
type PoseStyle string

const (
	PoseNone      PoseStyle = "Default"
	PoseStanding  PoseStyle = "Standing"
	PoseSitting   PoseStyle = "Sitting / Relaxed"
	PoseWalking   PoseStyle = "Walking"
	PoseRunning   PoseStyle = "Running / Sprinting"
	PoseJumping   PoseStyle = "Jumping / Airborne"
	PoseDancing   PoseStyle = "Dancing"
	PoseFighting  PoseStyle = "Fighting Stance"
	PoseSuperhero PoseStyle = "Superhero Landing"
	PoseYoga      PoseStyle = "Yoga Pose"
	PoseFlying    PoseStyle = "Flying / Floating"
	PoseKneeling  PoseStyle = "Kneeling"
	PoseDog       PoseStyle = "Dog Pose"
)

var PoseStyles = []PoseStyle{
	PoseNone, PoseStanding, PoseSitting, PoseWalking, PoseRunning, PoseJumping, PoseDancing,
	PoseFighting, PoseSuperhero, PoseYoga, PoseFlying, PoseKneeling, PoseDog,
}

// CameraStyle selects framing and perspective.
type CameraStyle string

const (
	CameraNone              CameraStyle = "Default"
	CameraFullBody          CameraStyle = "Full length composition"
	CameraCloseUp           CameraStyle = "Close-up portrait view"
	CameraMediumShot        CameraStyle = "Medium length composition"
	CameraWideAngle         CameraStyle = "Wide angle perspective"
	CameraLowAngle          CameraStyle = "Low angle heroic perspective"
	CameraHighAngle         CameraStyle = "High angle perspective"
	CameraOverhead          CameraStyle = "Aerial overhead perspective"
	CameraFisheye           CameraStyle = "Fisheye lens perspective"
	CameraMacro             CameraStyle = "Macro detail focus"
	CameraCinematic         CameraStyle = "Cinematic composition"
	CameraCinematicLighting CameraStyle = "Dramatically lit cinematic scene"
	CameraBokeh             CameraStyle = "Deep depth of field with bokeh"
	CameraIsometricView     CameraStyle = "Isometric view perspective"
)

var CameraStyles = []CameraStyle{
	CameraNone, CameraFullBody, CameraCloseUp, CameraMediumShot, CameraWideAngle, CameraLowAngle,
	CameraHighAngle, CameraOverhead, CameraFisheye, CameraMacro, CameraCinematic,
	CameraCinematicLighting, CameraBokeh, CameraIsometricView,
}

// LensStyle selects the simulated optic.
type LensStyle string

const (
	LensNone           LensStyle = "Standard Lens"
	LensUltraWide14mm  LensStyle = "14mm Ultra Wide"
	LensWide24mm       LensStyle = "24mm Wide Angle"
	LensStreet35mm     LensStyle = "35mm Street Lens"
	LensStandard50mm   LensStyle = "50mm Nifty Fifty"
	LensPortrait85mm   LensStyle = "85mm Portrait Prime"
	LensTelephoto135mm LensStyle = "135mm Telephoto"
	LensSport200mm     LensStyle = "200mm Sport Zoom"
	LensWildlife400mm  LensStyle = "400mm Wildlife Prime"
	LensMacro          LensStyle = "Macro Detail Lens"
	LensFisheyeExtreme LensStyle = "Extreme Fisheye"
	LensTiltShift      LensStyle = "Tilt-Shift Miniature"
	LensAnamorphic     LensStyle = "Anamorphic Widescreen"
	LensLeicaVintage   LensStyle = "Vintage Leica M Look"
	LensHelios44       LensStyle = "Helios 44-2 Swirly Bokeh"
	LensPetzval        LensStyle = "Petzval Artistic Lens"
	LensPinhole        LensStyle = "Pinhole Aesthetic"
	LensDisposable     LensStyle = "Disposable Camera Lens"
	LensInfrared       LensStyle = "Infrared Spectrum"
	LensPrism          LensStyle = "Prism Rainbow Lens"
	LensStarFilter     LensStyle = "Star Filter Lens"
	LensBlueStreak     LensStyle = "Blue Streak Anamorphic"
	LensBorescope      LensStyle = "Borescope Probe"
	LensCCTV           LensStyle = "CCTV Surveillance Lens"
	LensToy            LensStyle = "Toy Plastic Lens"
	LensSoftFocus      LensStyle = "Soft Focus Dreamy"
	LensPolarized      LensStyle = "Polarized Clear View"
	LensSuper8         LensStyle = "Super-8 Vintage Film"
	LensIMAX           LensStyle = "IMAX 70mm Format"
)

var LensStyles = []LensStyle{
	LensNone, LensUltraWide14mm, LensWide24mm, LensStreet35mm, LensStandard50mm, LensPortrait85mm,
	LensTelephoto135mm, LensSport200mm, LensWildlife400mm, LensMacro, LensFisheyeExtreme,
	LensTiltShift, LensAnamorphic, LensLeicaVintage, LensHelios44, LensPetzval, LensPinhole,
	LensDisposable, LensInfrared, LensPrism, LensStarFilter, LensBlueStreak, LensBorescope,
	LensCCTV, LensToy, LensSoftFocus, LensPolarized, LensSuper8, LensIMAX,
}

// AspectRatio is the requested output shape.
type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectPortrait  AspectRatio = "3:4"
	AspectLandscape AspectRatio = "4:3"
	AspectStory     AspectRatio = "9:16"
	AspectWide      AspectRatio = "16:9"
)

var AspectRatios = []AspectRatio{AspectSquare, AspectPortrait, AspectLandscape, AspectStory, AspectWide}

// Resolution is one of four output-size tiers.
type Resolution string

const (
	Resolution1K Resolution = "1K"
	Resolution2K Resolution = "2K"
	Resolution4K Resolution = "4K"
	Resolution8K Resolution = "8K"
)

var Resolutions = []Resolution{Resolution1K, Resolution2K, Resolution4K, Resolution8K}

// AboveBaseline reports whether r routes to the higher-capability model.
func (r Resolution) AboveBaseline() bool {
	return r != Resolution1K
}

// GeneratedImage is one produced image plus the selectors that produced it.
type GeneratedImage struct {
	// ID is a unique opaque identifier assigned at creation.
	ID string `json:"id"`

	// URL is a self-contained data URL, not a remote location.
	URL string `json:"url"`

	// Prompt is the final composed instruction.
	Prompt string `json:"prompt"`

	Style       ArtStyle    `json:"style"`
	Pose        PoseStyle   `json:"pose,omitempty"`
	Camera      CameraStyle `json:"camera,omitempty"`
	Lens        LensStyle   `json:"lens,omitempty"`
	AspectRatio AspectRatio `json:"aspectRatio,omitempty"`
	Resolution  Resolution  `json:"resolution,omitempty"`

	// Timestamp is the creation time in milliseconds since epoch.
	Timestamp int64 `json:"timestamp"`
}
